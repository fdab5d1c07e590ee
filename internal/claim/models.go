package claim

import (
	"time"
)

// Status is the lifecycle state of a claim. Submitted is the only
// non-terminal state.
type Status string

const (
	StatusSubmitted Status = "Submitted"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Decision reports whether s is a state an admin decision may move to.
func (s Status) Decision() bool {
	return s == StatusApproved || s == StatusRejected
}

const (
	// MaxCommentLen bounds the trimmed rejection reason.
	MaxCommentLen = 50
	// DateLayout is the calendar date format of Claim.Date.
	DateLayout = "2006-01-02"
)

// Proof references an uploaded receipt. An empty URL means no receipt.
type Proof struct {
	URL      string `json:"url" bson:"url"`
	Filename string `json:"filename,omitempty" bson:"filename,omitempty"`
}

// Claim is an expense reimbursement request. Field names are shared with
// other clients reading the claims collection directly.
type Claim struct {
	ID          string     `json:"id" bson:"_id"`
	EmployeeID  string     `json:"employeeId" bson:"employeeId"`
	Name        string     `json:"name" bson:"name"`
	Category    string     `json:"category" bson:"category"`
	Amount      float64    `json:"amount" bson:"amount"`
	Date        string     `json:"date" bson:"date"`
	Description string     `json:"description" bson:"description"`
	Proof       Proof      `json:"proof" bson:"proof"`
	Status      Status     `json:"status" bson:"status"`
	Comment     string     `json:"comment" bson:"comment"`
	ViewedBy    *string    `json:"viewedBy" bson:"viewedBy"`
	ViewedAt    *time.Time `json:"viewedAt" bson:"viewedAt"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

// Enriched is a claim decorated with the submitter's display name.
type Enriched struct {
	Claim
	EmployeeName string `json:"employeeName"`
}

// UnknownEmployee is shown when a claim's employee has no profile.
const UnknownEmployee = "Unknown Employee"

// Actor is the authenticated caller of a claim operation.
type Actor struct {
	UID   string
	Admin bool
}

// ValidDate reports whether d is a YYYY-MM-DD calendar date.
func ValidDate(d string) bool {
	_, err := time.Parse(DateLayout, d)
	return err == nil
}
