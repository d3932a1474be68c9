package service

import (
	"context"

	"go.uber.org/zap"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/authz"
	"taskhub-service/internal/model"
)

// AuthService authenticates users and resolves the principal's own
// profile.
type AuthService struct {
	store  Store
	hasher PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger
}

func NewAuthService(store Store, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{store: store, hasher: hasher, tokens: tokens, log: log}
}

// Login verifies credentials and mints an access token. Unknown email
// and wrong password produce the same error, so the response does not
// leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	if email == "" || password == "" {
		return "", nil, apperr.Validation("Email and password are required")
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}
	if user == nil || !s.hasher.Compare(password, user.PasswordHash) {
		return "", nil, apperr.Unauthorized("Invalid credentials")
	}
	if !user.IsActive {
		return "", nil, apperr.Unauthorized("Account is deactivated")
	}

	if user.TenantID != nil {
		tenant, err := s.store.TenantByID(ctx, *user.TenantID)
		if err != nil {
			return "", nil, apperr.Internal(err)
		}
		if tenant == nil || tenant.Status != model.TenantStatusActive {
			return "", nil, apperr.Forbidden("Tenant account is suspended")
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))
	return token, user, nil
}

// Me returns the acting principal's own user row.
func (s *AuthService) Me(ctx context.Context, p authz.Principal) (*model.User, error) {
	// Tenant members go through the evaluator; a tenant-free super_admin
	// reading its own row touches no tenant's resources.
	if p.TenantID != nil {
		if err := authorize(p, authz.ActionViewSelf, authz.Resource{TenantID: *p.TenantID}); err != nil {
			return nil, err
		}
	}

	user, err := s.store.UserByID(ctx, p.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}
