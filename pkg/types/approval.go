package types

// ApprovalStatus is the allowance state of one asset in a flow
type ApprovalStatus int

const (
	NotApproved ApprovalStatus = iota
	Pending
	Approved
)

func (s ApprovalStatus) String() string {
	switch s {
	case NotApproved:
		return "NOT_APPROVED"
	case Pending:
		return "PENDING"
	case Approved:
		return "APPROVED"
	default:
		return "UNKNOWN"
	}
}

// Statuses maps each relevant side to its approval status
type Statuses map[Side]ApprovalStatus

// Clone returns a copy safe to hand to observers
func (s Statuses) Clone() Statuses {
	out := make(Statuses, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FlowState is a snapshot of a deposit attempt
type FlowState struct {
	ID         string
	Statuses   Statuses
	Committing bool
	Committed  bool
	TxHash     string
	LastErr    error
}

// Display carries presentation settings as plain data
type Display struct {
	Theme  string
	Locale string
}
