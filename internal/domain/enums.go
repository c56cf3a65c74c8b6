package domain

// DealStage is a deal's position in the origination pipeline.
type DealStage string

const (
	StageProspect     DealStage = "Prospect"
	StageApplication  DealStage = "Application"
	StageUnderwriting DealStage = "Underwriting"
	StageCreditMemo   DealStage = "CreditMemo"
	StageDocs         DealStage = "Docs"
	StageApproved     DealStage = "Approved"
	StageClosed       DealStage = "Closed"
	StageDeclined     DealStage = "Declined"
)

// Stages lists all pipeline stages in order.
func Stages() []DealStage {
	return []DealStage{
		StageProspect, StageApplication, StageUnderwriting, StageCreditMemo,
		StageDocs, StageApproved, StageClosed, StageDeclined,
	}
}

// Valid reports whether s is a known stage.
func (s DealStage) Valid() bool {
	for _, known := range Stages() {
		if s == known {
			return true
		}
	}
	return false
}

// ProductType is the loan product of a deal.
type ProductType string

const (
	ProductTermLoan     ProductType = "TermLoan"
	ProductLineOfCredit ProductType = "LineOfCredit"
	ProductSBA7a        ProductType = "SBA7a"
	ProductEquipment    ProductType = "Equipment"
	ProductCRE          ProductType = "CRE"
)

// Products lists all loan products.
func Products() []ProductType {
	return []ProductType{
		ProductTermLoan, ProductLineOfCredit, ProductSBA7a,
		ProductEquipment, ProductCRE,
	}
}

// Valid reports whether p is a known product.
func (p ProductType) Valid() bool {
	for _, known := range Products() {
		if p == known {
			return true
		}
	}
	return false
}

// DocStatus is a document request's verification status.
type DocStatus string

const (
	DocPending   DocStatus = "pending"
	DocRequested DocStatus = "requested"
	DocReceived  DocStatus = "received"
	DocVerified  DocStatus = "verified"
	DocRejected  DocStatus = "rejected"
	DocWaived    DocStatus = "waived"
)

// Valid reports whether s is a known document status.
func (s DocStatus) Valid() bool {
	switch s {
	case DocPending, DocRequested, DocReceived, DocVerified, DocRejected, DocWaived:
		return true
	}
	return false
}

// Complete reports whether a document in this status counts toward a deal's
// docs-progress ratio.
func (s DocStatus) Complete() bool {
	switch s {
	case DocReceived, DocVerified, DocWaived:
		return true
	}
	return false
}

// TaskStatus is a task's workflow state.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// Severity grades a suggestion.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// JobStatus is a job's lifecycle state.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}
