package domain

// EventType identifies a stream event published through the broker.
type EventType string

const (
	// EventKeepalive is synthesized by an idle subscription; it carries no data.
	EventKeepalive EventType = "keepalive"

	// Document lifecycle events.
	EventDocumentRequested           EventType = "document.requested"
	EventDocumentReceived            EventType = "document.received"
	EventDocumentVerificationStarted EventType = "document.verification_started"
	EventDocumentVerified            EventType = "document.verified"
	EventDocumentRejected            EventType = "document.rejected"

	// Term optimization events.
	EventTermOptimizeStarted EventType = "term.optimize_started"
	EventTermOptimized       EventType = "term.optimized"

	// EventJobFailed reports a background job that ended in its failed state.
	EventJobFailed EventType = "job.failed"
)

// Event is the unit of delivery on the broker. Data is a tagged union keyed
// by Type: document events carry a DocumentRequest, the *_started / job
// events carry the typed payloads below, and unknown types fall back to a
// generic map. A nil Data is valid (keepalive).
type Event struct {
	Type EventType `json:"event"`
	Data any       `json:"data,omitempty"`
}

// VerificationStartedPayload announces that document verification began.
type VerificationStartedPayload struct {
	DealID     string `json:"dealId"`
	DocumentID string `json:"documentId"`
}

// TermOptimizeStartedPayload announces that a term optimization job began.
type TermOptimizeStartedPayload struct {
	DealID string `json:"dealId"`
	JobID  string `json:"jobId"`
}

// TermOptimizedPayload carries the suggestions produced by term optimization.
type TermOptimizedPayload struct {
	DealID        string   `json:"dealId"`
	SuggestionIDs []string `json:"suggestionIds"`
}

// JobFailedPayload carries the terminal failure of a background job.
type JobFailedPayload struct {
	JobID string `json:"jobId"`
	Error string `json:"error"`
}
