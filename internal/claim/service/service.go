package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/apperr"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim/repository"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/storage"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/metrics"
)

// NameResolver maps employee ids to profiles. Ids without a profile are
// absent from the result.
type NameResolver interface {
	ResolveNames(ctx context.Context, ids []string) (map[string]users.Profile, error)
}

// ReceiptUploader stores a receipt and returns its public URL.
type ReceiptUploader interface {
	Upload(ctx context.Context, employeeID, claimID string, f storage.File) (string, error)
}

// Service implements the claim workflow on top of a Repository.
type Service struct {
	repo     repository.Repository
	names    NameResolver
	receipts ReceiptUploader
	now      func() time.Time
}

// New returns a Service. receipts may be nil when object storage is not
// configured, in which case UploadReceipt fails with an upload error.
func New(repo repository.Repository, names NameResolver, receipts ReceiptUploader) *Service {
	return &Service{repo: repo, names: names, receipts: receipts, now: time.Now}
}

type SubmitInput struct {
	EmployeeID  string
	Name        string
	Category    string
	Amount      *float64
	Date        string
	Description string
	ProofURL    string
}

// EditInput holds the employee-editable fields. Nil fields are unchanged.
type EditInput struct {
	Name        *string
	Category    *string
	Amount      *float64
	Date        *string
	Description *string
}

func validAmount(a float64) error {
	if a <= 0 {
		return apperr.Validation("amount must be greater than 0")
	}
	return nil
}

func validDate(d string) error {
	if !claim.ValidDate(d) {
		return apperr.Validation("date must be YYYY-MM-DD")
	}
	return nil
}

// Submit creates a claim in status Submitted and returns its id.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if in.EmployeeID == "" || in.Category == "" || in.Amount == nil || in.Date == "" {
		return "", apperr.Validation("Missing required fields")
	}
	if err := validAmount(*in.Amount); err != nil {
		return "", err
	}
	if err := validDate(in.Date); err != nil {
		return "", err
	}
	c := &claim.Claim{
		EmployeeID:  in.EmployeeID,
		Name:        in.Name,
		Category:    in.Category,
		Amount:      *in.Amount,
		Date:        in.Date,
		Description: in.Description,
		Proof:       claim.Proof{URL: in.ProofURL},
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return "", apperr.Upstream(err)
	}
	metrics.ClaimsSubmitted.Inc()
	logger.Infof("claim submitted id=%s employee=%s", id, in.EmployeeID)
	return id, nil
}

// Get returns a claim visible to the actor: its owner or any admin.
func (s *Service) Get(ctx context.Context, actor claim.Actor, id string) (*claim.Claim, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !actor.Admin && c.EmployeeID != actor.UID {
		return nil, apperr.Forbidden("Not allowed to view this claim")
	}
	return c, nil
}

// ListMine returns the claims of employeeID, newest first.
func (s *Service) ListMine(ctx context.Context, actor claim.Actor, employeeID string) ([]*claim.Claim, error) {
	if !actor.Admin && employeeID != actor.UID {
		return nil, apperr.Forbidden("Not allowed to view these claims")
	}
	out, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	return out, nil
}

// ListAll returns all claims, optionally filtered by exact status, each
// decorated with the submitter's full name.
func (s *Service) ListAll(ctx context.Context, status claim.Status) ([]claim.Enriched, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("Invalid status filter")
	}
	list, err := s.repo.ListAll(ctx, status)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.EmployeeID)
	}
	profiles, err := s.names.ResolveNames(ctx, ids)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	out := make([]claim.Enriched, 0, len(list))
	for _, c := range list {
		name := claim.UnknownEmployee
		if p, ok := profiles[c.EmployeeID]; ok && p.FullName != "" {
			name = p.FullName
		}
		out = append(out, claim.Enriched{Claim: *c, EmployeeName: name})
	}
	return out, nil
}

// owned loads the claim and checks the actor submitted it.
func (s *Service) owned(ctx context.Context, actor claim.Actor, id string) (*claim.Claim, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if c.EmployeeID != actor.UID {
		return nil, apperr.Forbidden("Only the submitter can change this claim")
	}
	return c, nil
}

// Edit applies a partial update to a Submitted claim owned by the actor.
func (s *Service) Edit(ctx context.Context, actor claim.Actor, id string, in EditInput) error {
	if in.Amount != nil {
		if err := validAmount(*in.Amount); err != nil {
			return err
		}
	}
	if in.Date != nil {
		if err := validDate(*in.Date); err != nil {
			return err
		}
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	p := repository.Patch{
		Name:        in.Name,
		Category:    in.Category,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		IfStatus:    claim.StatusSubmitted,
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// AttachProof records the receipt URL of a Submitted claim owned by the actor.
func (s *Service) AttachProof(ctx context.Context, actor claim.Actor, id, url, filename string) error {
	if strings.TrimSpace(url) == "" {
		return apperr.Validation("proofUrl is required")
	}
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if c.Status != claim.StatusSubmitted {
		return apperr.Conflict("Claim is already " + string(c.Status))
	}
	if err := s.repo.UpdateProof(ctx, id, claim.Proof{URL: url, Filename: filename}); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// UploadReceipt stores f in object storage and attaches its URL to the claim.
// The two steps are not atomic: a failed attach leaves an orphaned object.
func (s *Service) UploadReceipt(ctx context.Context, actor claim.Actor, id string, f storage.File) (string, error) {
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if c.Status != claim.StatusSubmitted {
		return "", apperr.Conflict("Claim is already " + string(c.Status))
	}
	if s.receipts == nil {
		return "", apperr.Upload(errors.New("object storage not configured"))
	}
	url, err := s.receipts.Upload(ctx, c.EmployeeID, c.ID, f)
	if err != nil {
		return "", err
	}
	if err := s.AttachProof(ctx, actor, id, url, storage.ReceiptName(f.Name)); err != nil {
		return "", err
	}
	return url, nil
}

// Withdraw deletes a Submitted claim owned by the actor.
func (s *Service) Withdraw(ctx context.Context, actor claim.Actor, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, claim.StatusSubmitted); err != nil {
		return mapRepoErr(err)
	}
	logger.Infof("claim withdrawn id=%s", id)
	return nil
}

// Decide moves a Submitted claim to Approved or Rejected. The comment is kept
// only for rejections and must then be 1..MaxCommentLen characters once
// trimmed.
func (s *Service) Decide(ctx context.Context, id string, status claim.Status, comment, adminID string) error {
	if adminID == "" {
		return apperr.Validation("adminId is required")
	}
	if !status.Decision() {
		return apperr.Validation("status must be Approved or Rejected")
	}
	comment = strings.TrimSpace(comment)
	if status == claim.StatusRejected {
		if comment == "" {
			return apperr.Validation("comment is required for rejection")
		}
		if len([]rune(comment)) > claim.MaxCommentLen {
			return apperr.Validation("comment must be 50 characters or less")
		}
	} else {
		comment = ""
	}

	now := s.now().UTC()
	p := repository.Patch{
		Status:   &status,
		Comment:  &comment,
		ViewedBy: &adminID,
		ViewedAt: &now,
		IfStatus: claim.StatusSubmitted,
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		return mapRepoErr(err)
	}
	metrics.ClaimDecisions.WithLabelValues(string(status)).Inc()
	logger.Infof("claim decided id=%s status=%s by=%s", id, status, adminID)
	return nil
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("Claim not found")
	case errors.Is(err, repository.ErrStatusConflict):
		return apperr.Conflict("Claim is no longer Submitted")
	default:
		return apperr.Upstream(err)
	}
}
