// Package domain defines the entities, enumerations and stream events of the
// deal desk mock API. The store is the sole owner and mutator of entity
// records; handlers and jobs only ever see copies.
package domain

import "time"

// Owner is an immutable reference record for a deal owner.
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is the demo user returned by /me.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Deal is a loan origination opportunity tracked through the stage pipeline.
type Deal struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	BorrowerID      string      `json:"borrowerId"`
	Owner           Owner       `json:"owner"`
	Product         ProductType `json:"product"`
	Stage           DealStage   `json:"stage"`
	RequestedAmount float64     `json:"requestedAmount"`
	Probability     float64     `json:"probability"`
	RiskScore       float64     `json:"riskScore"`
	DSCR            float64     `json:"dscr"`
	LTV             float64     `json:"ltv"`

	// DocsProgress is derived: completed documents / total documents,
	// rounded to two decimals. The store recomputes it after every
	// document mutation.
	DocsProgress float64 `json:"docsProgress"`

	Flags     []string  `json:"flags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Borrower is the legal entity behind one or more deals.
type Borrower struct {
	ID                   string  `json:"id"`
	LegalName            string  `json:"legalName"`
	Industry             string  `json:"industry"`
	NAICS                string  `json:"naics"`
	Address              string  `json:"address"`
	ExistingRelationship bool    `json:"existingRelationship"`
	Deposits             float64 `json:"deposits"`
}

// Financial is one append-only financial record for a borrower.
// PeriodEnd is a calendar date in ISO form (2006-01-02).
type Financial struct {
	BorrowerID  string  `json:"borrowerId"`
	Period      string  `json:"period"` // annual | quarterly
	PeriodEnd   string  `json:"periodEnd"`
	Revenue     float64 `json:"revenue"`
	EBITDA      float64 `json:"ebitda"`
	DebtService float64 `json:"debtService"`
}

// DocumentRequest is a checklist item of required borrower documentation.
type DocumentRequest struct {
	ID          string    `json:"id"`
	DealID      string    `json:"dealId"`
	Label       string    `json:"label"`
	Type        string    `json:"type"`
	RequiredBy  *string   `json:"requiredBy"`
	Status      DocStatus `json:"status"`
	Link        *string   `json:"link"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Task is a work item attached to a deal.
type Task struct {
	ID         string     `json:"id"`
	DealID     string     `json:"dealId"`
	Title      string     `json:"title"`
	AssignedTo *string    `json:"assignedTo"`
	DueAt      *time.Time `json:"dueAt"`
	Status     TaskStatus `json:"status"`
}

// Suggestion is an automatically generated recommendation for a deal.
type Suggestion struct {
	ID       string   `json:"id"`
	DealID   string   `json:"dealId"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// TermSheet holds the proposed loan terms for a deal; at most one per deal.
type TermSheet struct {
	ID                 string    `json:"id"`
	DealID             string    `json:"dealId"`
	BaseRate           string    `json:"baseRate"`
	MarginBps          int       `json:"marginBps"`
	AmortMonths        int       `json:"amortMonths"`
	InterestOnlyMonths int       `json:"interestOnlyMonths"`
	OriginationFeeBps  int       `json:"originationFeeBps"`
	PrepayPenalty      *string   `json:"prepayPenalty"`
	Collateral         *string   `json:"collateral"`
	Covenants          []string  `json:"covenants"`
	Conditions         []string  `json:"conditions"`
	LastEditedAt       time.Time `json:"lastEditedAt"`
}

// ActivityEvent is one entry in a deal's append-only audit log.
type ActivityEvent struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	At      time.Time      `json:"at"`
	DealID  string         `json:"dealId"`
	Payload map[string]any `json:"payload"`
}

// Job is an asynchronously executed simulated workflow.
// Lifecycle: queued → running → succeeded | failed. Terminal states are final.
type Job struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Status    JobStatus      `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Result    map[string]any `json:"result"`
	Error     *string        `json:"error"`
}
