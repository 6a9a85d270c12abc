package states

// State is a keepalive supervisor state.
type State string

const (
	Pulling    State = "pulling"
	Running    State = "running"
	Restarting State = "restarting"
	Terminated State = "terminated"
)

func (s State) String() string {
	return string(s)
}
