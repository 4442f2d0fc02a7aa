package feedback

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Emitter plays the audible cue for an accepted scan. Best-effort: callers
// log errors and never gate the pipeline on the result.
type Emitter interface {
	Play(ctx context.Context) error
}

// Noop discards the cue.
type Noop struct{}

func (Noop) Play(context.Context) error { return nil }

// Bell writes an ASCII BEL to w (terminal cue).
type Bell struct {
	W io.Writer
}

func (b Bell) Play(context.Context) error {
	w := b.W
	if w == nil {
		w = os.Stdout
	}
	_, err := w.Write([]byte{'\a'})
	return err
}

// Command spawns a configured player command for each cue
// (e.g. "paplay /usr/share/sounds/beep.ogg").
type Command struct {
	Command string
}

func (c Command) Play(ctx context.Context) error {
	cmdStr := strings.TrimSpace(c.Command)
	if cmdStr == "" {
		return errors.New("empty feedback command")
	}
	// When metacharacters are present, hand the line to /bin/sh.
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.CommandContext(ctx, "/bin/sh", "-c", cmdStr).Run()
	}
	parts := strings.Fields(cmdStr)
	// #nosec G204
	return exec.CommandContext(ctx, parts[0], parts[1:]...).Run()
}

// FromConfig selects an emitter by type name: "bell", "command" or "none".
func FromConfig(typ, command string) (Emitter, error) {
	switch typ {
	case "", "none":
		return Noop{}, nil
	case "bell":
		return Bell{}, nil
	case "command":
		if strings.TrimSpace(command) == "" {
			return nil, errors.New("feedback type command requires a command")
		}
		return Command{Command: command}, nil
	default:
		return nil, errors.New("unknown feedback type: " + typ)
	}
}
