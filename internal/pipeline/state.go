package pipeline

// State is the two-state gate preventing duplicate processing of
// overlapping scan detections.
type State int32

const (
	StateIdle State = iota
	StateBusy
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	default:
		return "unknown"
	}
}
