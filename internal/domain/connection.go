package domain

// ConnectionState is the realtime channel lifecycle state.
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateOpen
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
