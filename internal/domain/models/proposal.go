package models

import "time"

// ProposalStatus is the review state of a trade proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "PENDING"
	ProposalApproved ProposalStatus = "APPROVED"
	ProposalRejected ProposalStatus = "REJECTED"
	ProposalExpired  ProposalStatus = "EXPIRED"
)

// IsTerminal reports whether no further status change is accepted.
// APPROVED is not terminal for the proposal itself: the execution record
// carries the rest of its lifecycle.
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalRejected || s == ProposalExpired
}

// ExecutionStatus is the brokerage outcome of an approved proposal.
type ExecutionStatus string

const (
	ExecutionPending  ExecutionStatus = "PENDING"
	ExecutionFilled   ExecutionStatus = "FILLED"
	ExecutionRejected ExecutionStatus = "REJECTED"
)

// Proposal is a user-scoped trade suggestion awaiting a decision.
// Mutated only via status transition; never deleted.
type Proposal struct {
	ID           string         `json:"id"`
	Symbol       string         `json:"symbol"`
	Action       TradeAction    `json:"action"`
	Quantity     int            `json:"quantity"`
	Price        float64        `json:"price"`
	Reason       string         `json:"reason"`
	StrategyName string         `json:"strategy"`
	UserID       string         `json:"user_id"`
	Status       ProposalStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

// Decision records a user's verdict on a proposal. Executed reports
// whether the downstream order fill succeeded; a false value with an
// APPROVED decision means the brokerage leg failed.
type Decision struct {
	ID         string         `json:"id"`
	ProposalID string         `json:"proposal_id"`
	Decision   ProposalStatus `json:"decision"` // APPROVED or REJECTED
	Notes      string         `json:"notes,omitempty"`
	UserID     string         `json:"user_id"`
	Executed   bool           `json:"executed"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Execution is the 1:1 brokerage record for an approved proposal.
// Status transitions exactly once from PENDING to a terminal value.
type Execution struct {
	ID            string          `json:"id"`
	ProposalID    string          `json:"proposal_id"`
	Status        ExecutionStatus `json:"execution_status"`
	OrderID       string          `json:"order_id,omitempty"`
	ExecutedPrice float64         `json:"executed_price,omitempty"`
	ExecutedAt    time.Time       `json:"executed_at,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	UserID        string          `json:"user_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderConfirmation is the brokerage acknowledgement of a submitted order.
type OrderConfirmation struct {
	OrderID     string
	Symbol      string
	Quantity    int
	Side        TradeAction
	FilledPrice float64
	SubmittedAt time.Time
}
