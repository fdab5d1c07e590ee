package repository

import (
	"context"
	"errors"
	"time"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim"
)

var (
	ErrNotFound = errors.New("claim not found")
	// ErrStatusConflict is returned by conditional writes when the claim
	// exists but is not in the expected status.
	ErrStatusConflict = errors.New("claim status does not allow this change")
)

// Repository is the persistence contract for claims.
type Repository interface {
	Create(ctx context.Context, c *claim.Claim) (string, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*claim.Claim, error)
	// ListAll returns every claim, or only those in status when it is non-empty.
	ListAll(ctx context.Context, status claim.Status) ([]*claim.Claim, error)
	Get(ctx context.Context, id string) (*claim.Claim, error)
	Update(ctx context.Context, id string, p Patch) error
	UpdateProof(ctx context.Context, id string, proof claim.Proof) error
	// Delete removes the claim; when ifStatus is non-empty only a claim in that
	// status is removed.
	Delete(ctx context.Context, id string, ifStatus claim.Status) error
}

// Patch is a partial update. Nil fields are left untouched, so a caller can
// never overwrite a value it did not set.
type Patch struct {
	Name        *string
	Category    *string
	Description *string
	Date        *string
	Amount      *float64

	Status   *claim.Status
	Comment  *string
	ViewedBy *string
	ViewedAt *time.Time

	// IfStatus makes the write conditional on the stored status.
	IfStatus claim.Status
}

// Empty reports whether the patch sets no fields.
func (p Patch) Empty() bool {
	return len(p.fields()) == 0
}

// fields returns the set fields keyed by their stored name.
func (p Patch) fields() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Category != nil {
		out["category"] = *p.Category
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Date != nil {
		out["date"] = *p.Date
	}
	if p.Amount != nil {
		out["amount"] = *p.Amount
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	if p.Comment != nil {
		out["comment"] = *p.Comment
	}
	if p.ViewedBy != nil {
		out["viewedBy"] = *p.ViewedBy
	}
	if p.ViewedAt != nil {
		out["viewedAt"] = *p.ViewedAt
	}
	return out
}

func (p Patch) apply(c *claim.Claim) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Date != nil {
		c.Date = *p.Date
	}
	if p.Amount != nil {
		c.Amount = *p.Amount
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Comment != nil {
		c.Comment = *p.Comment
	}
	if p.ViewedBy != nil {
		v := *p.ViewedBy
		c.ViewedBy = &v
	}
	if p.ViewedAt != nil {
		v := *p.ViewedAt
		c.ViewedAt = &v
	}
}

// initialize sets the server-owned fields of a new claim.
func initialize(c *claim.Claim, id string, now time.Time) {
	c.ID = id
	c.Status = claim.StatusSubmitted
	c.Comment = ""
	c.ViewedBy = nil
	c.ViewedAt = nil
	c.CreatedAt = now
}
