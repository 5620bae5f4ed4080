package session

// Role selects the order of the public key exchange. It has no effect after the handshake.
type Role uint8

const (
	RoleInitiator Role = iota + 1 // dialer: writes first
	RoleResponder                 // listener: reads first
)

func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleResponder:
		return "responder"
	default:
		return "unknown"
	}
}

// State is a handshake state. The machine only moves forward:
// GeneratingKeys -> Exchanging -> Done, or to Aborted from any state.
type State uint8

const (
	StateGeneratingKeys State = iota + 1
	StateExchanging
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateGeneratingKeys:
		return "GENERATING_KEYS"
	case StateExchanging:
		return "EXCHANGING"
	case StateDone:
		return "DONE"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}
