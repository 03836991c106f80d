package models

// Event is the envelope broadcast to notification subscribers on every
// proposal lifecycle transition.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"data"`
}

// Event types carried on the notification channel and the audit stream.
const (
	EventProposalCreated  = "trade_proposals"
	EventProposalDecided  = "trade_decisions"
	EventProposalExpired  = "trade_expirations"
	EventExecutionUpdated = "trade_executions"
)
