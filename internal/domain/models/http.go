package models

// Requests for the API endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	// End is an optional RFC3339 or unix-seconds instant to evaluate
	// against historical bars. Empty means now.
	End string `query:"end" json:"end"`
}

type DecisionRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
	Decision   string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Notes      string `json:"notes" validate:"max=500"`
	UserID     string `json:"user_id" validate:"required"`
}

type ProposalsRequest struct {
	UserID string `query:"user_id" json:"user_id"`
	Status string `query:"status" json:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED EXPIRED"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type TargetUserRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type BiasRefreshRequest struct {
	Symbols []string `json:"symbols" validate:"omitempty,dive,required"`
}

// DecisionResult reports the decision outcome distinctly from the
// execution outcome: a recorded decision whose order failed still
// succeeds as a decision.
type DecisionResult struct {
	Proposal  *Proposal  `json:"proposal"`
	Decision  *Decision  `json:"decision"`
	Execution *Execution `json:"execution,omitempty"`
}
