package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/scanpipe/scanpipe/pkg/client"
)

// command bundles the remote operations so tests can drive them directly.
type command struct{}

func (command) apiClient(f APIFlags) *client.Client {
	cfg := client.DefaultConfig()
	if f.APIUrl != "" {
		cfg.BaseURL = f.APIUrl
	}
	if f.APITimeout > 0 {
		cfg.Timeout = f.APITimeout
	}
	return client.New(cfg)
}

func (command) ctx(f APIFlags) (context.Context, context.CancelFunc) {
	timeout := f.APITimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// Scan submits one payload to the daemon.
func (c command) Scan(f ScanFlags) error {
	ctx, cancel := c.ctx(f.APIFlags)
	defer cancel()
	resp, err := c.apiClient(f.APIFlags).Scan(ctx, f.Payload)
	if err != nil {
		return err
	}
	if !resp.Accepted {
		fmt.Println("dropped: pipeline busy")
		return nil
	}
	fmt.Printf("stored %s (%s)\n", resp.Record.Payload, resp.Record.ID)
	return nil
}

// History prints the retained records, newest-first.
func (c command) History(f APIFlags) error {
	ctx, cancel := c.ctx(f)
	defer cancel()
	recs, err := c.apiClient(f).History(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no scans recorded")
		return nil
	}
	for _, r := range recs {
		fmt.Printf("%s  %s\n", r.ObservedAt.Local().Format("2006-01-02 15:04:05"), r.Payload)
	}
	return nil
}

// Export prints the shareable flat-text rendering.
func (c command) Export(f APIFlags) error {
	ctx, cancel := c.ctx(f)
	defer cancel()
	text, err := c.apiClient(f).Export(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, text)
	return err
}

// Clear wipes the daemon's history.
func (c command) Clear(f APIFlags) error {
	ctx, cancel := c.ctx(f)
	defer cancel()
	if err := c.apiClient(f).Clear(ctx); err != nil {
		return err
	}
	fmt.Println("history cleared")
	return nil
}

// Status prints the pipeline state.
func (c command) Status(f APIFlags) error {
	ctx, cancel := c.ctx(f)
	defer cancel()
	st, err := c.apiClient(f).Status(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("state: %s, records: %d\n", st.State, st.Records)
	return nil
}
