package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/apperr"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim/repository"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/storage"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/metrics"
)

type fakeUploader struct {
	url  string
	err  error
	keys []string
}

func (f *fakeUploader) Upload(ctx context.Context, employeeID, claimID string, file storage.File) (string, error) {
	f.keys = append(f.keys, storage.ReceiptKey(employeeID, claimID, file.Name))
	return f.url, f.err
}

type fixture struct {
	svc      *Service
	repo     *repository.MemoryRepo
	people   *users.MemoryUserRepository
	uploader *fakeUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepo()
	people := users.NewMemoryUserRepository()
	up := &fakeUploader{url: "http://minio/receipts/x"}
	return &fixture{
		svc:      New(repo, users.NewDirectory(people), up),
		repo:     repo,
		people:   people,
		uploader: up,
	}
}

func amount(v float64) *float64 { return &v }

var (
	employee = claim.Actor{UID: "e1"}
	admin    = claim.Actor{UID: "admin1", Admin: true}
)

func (f *fixture) submit(t *testing.T) string {
	t.Helper()
	id, err := f.svc.Submit(context.Background(), SubmitInput{
		EmployeeID: "e1", Category: "Travel", Amount: amount(100), Date: "2024-01-01",
	})
	require.NoError(t, err)
	return id
}

func requireKind(t *testing.T, err error, k apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, k, apperr.KindOf(err), "error: %v", err)
}

func TestSubmit_InitialState(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(metrics.ClaimsSubmitted)
	id := f.submit(t)

	c, err := f.svc.Get(context.Background(), employee, id)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusSubmitted, c.Status)
	assert.Equal(t, "", c.Comment)
	assert.Nil(t, c.ViewedBy)
	assert.Nil(t, c.ViewedAt)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClaimsSubmitted))
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   SubmitInput
		msg  string
	}{
		{"no amount", SubmitInput{EmployeeID: "e1", Category: "Travel", Date: "2024-01-01"}, "Missing required fields"},
		{"no category", SubmitInput{EmployeeID: "e1", Amount: amount(5), Date: "2024-01-01"}, "Missing required fields"},
		{"no employee", SubmitInput{Category: "Travel", Amount: amount(5), Date: "2024-01-01"}, "Missing required fields"},
		{"zero amount", SubmitInput{EmployeeID: "e1", Category: "Travel", Amount: amount(0), Date: "2024-01-01"}, "amount must be greater than 0"},
		{"bad date", SubmitInput{EmployeeID: "e1", Category: "Travel", Amount: amount(5), Date: "01/02/2024"}, "date must be YYYY-MM-DD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tc.in)
			requireKind(t, err, apperr.KindValidation)
			var ae *apperr.Error
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tc.msg, ae.Message)
		})
	}
}

func TestDecide_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	requireKind(t, f.svc.Decide(ctx, id, claim.StatusRejected, "", "admin1"), apperr.KindValidation)
	requireKind(t, f.svc.Decide(ctx, id, claim.StatusRejected, "   ", "admin1"), apperr.KindValidation)
	requireKind(t, f.svc.Decide(ctx, id, claim.StatusRejected, strings.Repeat("x", 51), "admin1"), apperr.KindValidation)
	requireKind(t, f.svc.Decide(ctx, id, claim.StatusSubmitted, "", "admin1"), apperr.KindValidation)
	requireKind(t, f.svc.Decide(ctx, id, claim.StatusApproved, "", ""), apperr.KindValidation)

	c, err := f.svc.Get(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusSubmitted, c.Status)
}

func TestDecide_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	fixed := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	before := testutil.ToFloat64(metrics.ClaimDecisions.WithLabelValues("Rejected"))
	require.NoError(t, f.svc.Decide(ctx, id, claim.StatusRejected, "Missing receipt", "admin1"))

	c, err := f.svc.Get(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusRejected, c.Status)
	assert.Equal(t, "Missing receipt", c.Comment)
	require.NotNil(t, c.ViewedBy)
	assert.Equal(t, "admin1", *c.ViewedBy)
	require.NotNil(t, c.ViewedAt)
	assert.True(t, fixed.Equal(*c.ViewedAt))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClaimDecisions.WithLabelValues("Rejected")))
}

func TestDecide_ExactLimitComment(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t)
	require.NoError(t, f.svc.Decide(context.Background(), id, claim.StatusRejected, strings.Repeat("y", 50), "admin1"))
}

func TestDecide_ApproveClearsComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	require.NoError(t, f.svc.Decide(ctx, id, claim.StatusApproved, "looks fine to me", "admin1"))
	c, err := f.svc.Get(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, c.Status)
	assert.Equal(t, "", c.Comment)
}

func TestDecide_TerminalStateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	require.NoError(t, f.svc.Decide(ctx, id, claim.StatusApproved, "", "admin1"))
	requireKind(t, f.svc.Decide(ctx, id, claim.StatusRejected, "changed my mind", "admin2"), apperr.KindConflict)
	requireKind(t, f.svc.Decide(ctx, "missing", claim.StatusApproved, "", "admin1"), apperr.KindNotFound)
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Submit(ctx, SubmitInput{EmployeeID: "e1", Category: "Travel", Amount: amount(100), Date: "2024-01-01"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	c, err := f.svc.Get(ctx, employee, id)
	require.NoError(t, err)
	require.Equal(t, claim.StatusSubmitted, c.Status)

	require.NoError(t, f.svc.Decide(ctx, id, claim.StatusApproved, "", "admin1"))
	c, err = f.svc.Get(ctx, employee, id)
	require.NoError(t, err)
	require.Equal(t, claim.StatusApproved, c.Status)
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	name := "New"
	require.NoError(t, f.svc.Edit(ctx, employee, id, EditInput{Name: &name}))
	c, err := f.svc.Get(ctx, employee, id)
	require.NoError(t, err)
	assert.Equal(t, "New", c.Name)
	assert.Equal(t, 100.0, c.Amount)

	requireKind(t, f.svc.Edit(ctx, claim.Actor{UID: "e2"}, id, EditInput{Name: &name}), apperr.KindForbidden)
	requireKind(t, f.svc.Edit(ctx, employee, id, EditInput{Amount: amount(-1)}), apperr.KindValidation)

	require.NoError(t, f.svc.Decide(ctx, id, claim.StatusApproved, "", "admin1"))
	requireKind(t, f.svc.Edit(ctx, employee, id, EditInput{Name: &name}), apperr.KindConflict)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	requireKind(t, f.svc.Withdraw(ctx, claim.Actor{UID: "e2"}, id), apperr.KindForbidden)
	require.NoError(t, f.svc.Withdraw(ctx, employee, id))
	_, err := f.svc.Get(ctx, employee, id)
	requireKind(t, err, apperr.KindNotFound)

	id = f.submit(t)
	require.NoError(t, f.svc.Decide(ctx, id, claim.StatusRejected, "no", "admin1"))
	requireKind(t, f.svc.Withdraw(ctx, employee, id), apperr.KindConflict)
}

func TestAttachProof(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	requireKind(t, f.svc.AttachProof(ctx, employee, id, "", ""), apperr.KindValidation)
	require.NoError(t, f.svc.AttachProof(ctx, employee, id, "http://x/r.png", "r.png"))
	c, err := f.svc.Get(ctx, employee, id)
	require.NoError(t, err)
	assert.Equal(t, claim.Proof{URL: "http://x/r.png", Filename: "r.png"}, c.Proof)
}

func TestUploadReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	url, err := f.svc.UploadReceipt(ctx, employee, id, storage.File{Reader: bytes.NewBufferString("img"), Size: 3, Name: "dir/receipt.png"})
	require.NoError(t, err)
	assert.Equal(t, "http://minio/receipts/x", url)
	assert.Equal(t, []string{"receipts/e1/" + id + "/receipt.png"}, f.uploader.keys)

	c, err := f.svc.Get(ctx, employee, id)
	require.NoError(t, err)
	assert.Equal(t, "receipt.png", c.Proof.Filename)
	assert.Equal(t, url, c.Proof.URL)
}

func TestUploadReceipt_StorageFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.uploader.err = apperr.Upload(errors.New("bucket gone"))

	_, err := f.svc.UploadReceipt(ctx, employee, id, storage.File{Reader: bytes.NewBufferString("img"), Size: 3, Name: "r.png"})
	requireKind(t, err, apperr.KindUpload)
	c, err := f.svc.Get(ctx, employee, id)
	require.NoError(t, err)
	assert.Empty(t, c.Proof.URL)
}

func TestUploadReceipt_NotConfigured(t *testing.T) {
	repo := repository.NewMemoryRepo()
	svc := New(repo, users.NewDirectory(users.NewMemoryUserRepository()), nil)
	id, err := svc.Submit(context.Background(), SubmitInput{EmployeeID: "e1", Category: "Meals", Amount: amount(12.5), Date: "2024-03-03"})
	require.NoError(t, err)
	_, err = svc.UploadReceipt(context.Background(), employee, id, storage.File{Reader: bytes.NewBufferString("x"), Size: 1, Name: "a.pdf"})
	requireKind(t, err, apperr.KindUpload)
}

func TestReadAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	_, err := f.svc.Get(ctx, claim.Actor{UID: "e2"}, id)
	requireKind(t, err, apperr.KindForbidden)
	_, err = f.svc.ListMine(ctx, claim.Actor{UID: "e2"}, "e1")
	requireKind(t, err, apperr.KindForbidden)

	list, err := f.svc.ListMine(ctx, admin, "e1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListAll_FilterAndEnrich(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.people.Create(ctx, &users.User{UID: "e1", FirstName: "Ann", LastName: "Lee", Role: users.RoleEmployee}))

	approved1 := f.submit(t)
	_ = f.submit(t)
	orphan, err := f.svc.Submit(ctx, SubmitInput{EmployeeID: "ghost", Category: "Meals", Amount: amount(9), Date: "2024-01-02"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Decide(ctx, approved1, claim.StatusApproved, "", "admin1"))
	require.NoError(t, f.svc.Decide(ctx, orphan, claim.StatusApproved, "", "admin1"))

	list, err := f.svc.ListAll(ctx, claim.StatusApproved)
	require.NoError(t, err)
	require.Len(t, list, 2)
	names := map[string]string{}
	for i, c := range list {
		assert.Equal(t, claim.StatusApproved, c.Status)
		names[c.ID] = c.EmployeeName
		if i > 0 {
			assert.False(t, c.CreatedAt.After(list[i-1].CreatedAt))
		}
	}
	assert.Equal(t, "Ann Lee", names[approved1])
	assert.Equal(t, claim.UnknownEmployee, names[orphan])

	all, err := f.svc.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.ListAll(ctx, "Pending")
	requireKind(t, err, apperr.KindValidation)
}
