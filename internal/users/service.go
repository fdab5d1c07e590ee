package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/apperr"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/identity"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
)

// AccountCreator registers logins with the identity provider.
type AccountCreator interface {
	CreateAccount(ctx context.Context, a identity.Account) (string, error)
}

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	idp  AccountCreator
	now  func() time.Time
}

// NewService wires the profile store and the identity provider. idp may be
// nil, in which case CreateUser is unavailable.
func NewService(r UserRepository, idp AccountCreator) *Service {
	return &Service{repo: r, idp: idp, now: time.Now}
}

// CreateUserInput is the admin request to create an account and profile.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      Role
}

const minPasswordLen = 6

func (in *CreateUserInput) validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.FirstName == "" || in.LastName == "":
		return apperr.Validation("Name required")
	case in.Email == "":
		return apperr.Validation("Email required")
	case len(in.Password) < minPasswordLen:
		return apperr.Validation("Password must be at least 6 chars")
	case !in.Role.Valid():
		return apperr.Validation("Invalid role")
	}
	return nil
}

// CreateUser creates the identity-provider account, then the profile with
// createdBy set to the acting admin. The two writes are not transactional; a
// profile failure leaves an account without a profile, which CreateProfile
// can repair.
func (s *Service) CreateUser(ctx context.Context, actorUID string, in CreateUserInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if s.idp == nil {
		return nil, apperr.Upstream(errors.New("identity provider admin client is not configured"))
	}
	uid, err := s.idp.CreateAccount(ctx, identity.Account{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			return nil, apperr.Conflict("The email address is already in use by another account.")
		}
		return nil, apperr.Upstream(err)
	}
	u := &User{
		UID:       uid,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
		CreatedBy: actorUID,
	}
	if err := s.CreateProfile(ctx, u); err != nil {
		return nil, err
	}
	logger.Infof("user created: uid=%s role=%s createdBy=%s", uid, in.Role, actorUID)
	return u, nil
}

// CreateProfile stores a profile for an existing identity-provider account.
func (s *Service) CreateProfile(ctx context.Context, u *User) error {
	if u.UID == "" {
		return apperr.Validation("uid required")
	}
	if !u.Role.Valid() {
		return apperr.Validation("Invalid role")
	}
	u.Disabled = false
	u.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrExists) {
			return apperr.Conflict("Profile already exists")
		}
		return apperr.Upstream(err)
	}
	return nil
}

// Get returns the stored profile for uid.
func (s *Service) Get(ctx context.Context, uid string) (*User, error) {
	u, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Upstream(err)
	}
	return u, nil
}

// GetRole returns the stored role for uid.
func (s *Service) GetRole(ctx context.Context, uid string) (Role, error) {
	u, err := s.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// LookupRole is GetRole as a plain string, for the role middleware.
func (s *Service) LookupRole(ctx context.Context, uid string) (string, error) {
	r, err := s.GetRole(ctx, uid)
	return string(r), err
}
