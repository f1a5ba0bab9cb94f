package batch

import "fmt"

// Op is the completion predicate of a group.
type Op int

const (
	// AllComplete needs every required participant ready.
	AllComplete Op = iota
	// AnyComplete needs a single ready participant.
	AnyComplete
	// Quorum needs required/2+1 ready participants.
	Quorum
	// Ordered uses the AllComplete threshold. Readiness order is not enforced.
	Ordered
)

func (o Op) String() string {
	switch o {
	case AllComplete:
		return "all_complete"
	case AnyComplete:
		return "any_complete"
	case Quorum:
		return "quorum"
	case Ordered:
		return "ordered"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// ParseOp maps an op name back to its value.
func ParseOp(name string) (Op, error) {
	for _, o := range []Op{AllComplete, AnyComplete, Quorum, Ordered} {
		if o.String() == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown batch op %q", name)
}

// QuorumSize is the ready count a group of required participants needs
// under op.
func QuorumSize(op Op, required uint32) uint32 {
	if op == Quorum {
		return required/2 + 1
	}
	return required
}

// ParticipantState tracks one participant through a rendezvous.
type ParticipantState int

const (
	Waiting ParticipantState = iota
	Ready
	Committed
	Aborted
	TimedOut
)

func (s ParticipantState) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Ready:
		return "ready"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("participant_state(%d)", int(s))
	}
}
