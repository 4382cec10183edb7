package auth

import (
	"context"

	"maintenance-service/pkg/errs"
	"maintenance-service/pkg/jwtutil"
	"maintenance-service/pkg/oauth"

	"go.uber.org/zap"
)

const invalidTokenMessage = "Invalid or expired token"

var errNoToken = errs.Unauthorized("no token")

// TokenValidator turns a bearer token into an Identity. Exactly one strategy is used per process.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*Identity, error)
	// CheckRoles is true iff at least one required role is held
	CheckRoles(ctx context.Context, token string, required []string) bool
	// CheckPermissions is true iff every required permission is held
	CheckPermissions(ctx context.Context, token string, required []string) bool
}

// IdentityRoleChecker is implemented by validators whose Identity already carries
// every role, letting the pipeline skip a second validation
type IdentityRoleChecker interface {
	CheckIdentityRoles(identity *Identity, required []string) bool
}

// Authority is the remote authorization server
type Authority interface {
	VerifyToken(ctx context.Context, token string) (*oauth.UserInfo, error)
	GetUserInfo(ctx context.Context, token string) (*oauth.UserInfo, error)
}

// RemoteValidator delegates validation to the authorization server
type RemoteValidator struct {
	authority Authority
	logger    *zap.Logger
}

func NewRemoteValidator(authority Authority, logger *zap.Logger) *RemoteValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteValidator{authority: authority, logger: logger}
}

func (v *RemoteValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, errNoToken
	}
	info, err := v.authority.VerifyToken(ctx, token)
	if err != nil {
		v.logger.Warn("Remote token verification failed", zap.Error(err))
		return nil, errs.Wrap(errs.ErrUnauthorized, invalidTokenMessage, err)
	}
	return identityFromUserInfo(info, token), nil
}

func (v *RemoteValidator) CheckRoles(ctx context.Context, token string, required []string) bool {
	id, err := v.Validate(ctx, token)
	if err != nil {
		return false
	}
	return v.CheckIdentityRoles(id, required)
}

// CheckIdentityRoles matches roles the authority returned on verification
func (v *RemoteValidator) CheckIdentityRoles(identity *Identity, required []string) bool {
	return identity != nil && HasAnyRole(identity.Roles, required)
}

// CheckPermissions matches against the authority's userinfo permissions exactly
func (v *RemoteValidator) CheckPermissions(ctx context.Context, token string, required []string) bool {
	info, err := v.UserInfo(ctx, token)
	if err != nil {
		return false
	}
	return HasAllPermissions(info.Permissions, required, true)
}

// UserInfo returns the authority's current view of the token holder
func (v *RemoteValidator) UserInfo(ctx context.Context, token string) (*oauth.UserInfo, error) {
	if token == "" {
		return nil, errNoToken
	}
	info, err := v.authority.GetUserInfo(ctx, token)
	if err != nil {
		v.logger.Warn("Remote userinfo lookup failed", zap.Error(err))
		return nil, errs.Wrap(errs.ErrUnauthorized, invalidTokenMessage, err)
	}
	return info, nil
}

func identityFromUserInfo(info *oauth.UserInfo, token string) *Identity {
	return &Identity{
		Subject:     info.Sub,
		Username:    info.Username,
		Email:       info.Email,
		Roles:       info.Roles,
		Permissions: info.Permissions,
		Token:       token,
	}
}

// TokenVerifier is the subset of jwtutil used to verify self-issued tokens
type TokenVerifier interface {
	ValidateAccessToken(tokenString string) (*jwtutil.UserClaims, error)
}

// LocalValidator verifies self-issued HS256 tokens and derives permissions from the role table
type LocalValidator struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewLocalValidator(verifier TokenVerifier, logger *zap.Logger) *LocalValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalValidator{verifier: verifier, logger: logger}
}

func (v *LocalValidator) Validate(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, errNoToken
	}
	claims, err := v.verifier.ValidateAccessToken(token)
	if err != nil {
		v.logger.Debug("Local token verification failed", zap.Error(err))
		return nil, errs.Wrap(errs.ErrUnauthorized, invalidTokenMessage, err)
	}

	identity := &Identity{
		Subject:     claims.Subject,
		Username:    claims.Email,
		Email:       claims.Email,
		CompanyID:   claims.CompanyID,
		Permissions: PermissionsForRole(claims.Role),
		Token:       token,
	}
	if claims.Role != "" {
		identity.Roles = []string{claims.Role}
	}
	return identity, nil
}

func (v *LocalValidator) CheckRoles(ctx context.Context, token string, required []string) bool {
	id, err := v.Validate(ctx, token)
	if err != nil {
		return false
	}
	return v.CheckIdentityRoles(id, required)
}

func (v *LocalValidator) CheckIdentityRoles(identity *Identity, required []string) bool {
	return identity != nil && HasAnyRole(identity.Roles, required)
}

func (v *LocalValidator) CheckPermissions(ctx context.Context, token string, required []string) bool {
	id, err := v.Validate(ctx, token)
	if err != nil {
		return false
	}
	return HasAllPermissions(id.Permissions, required, false)
}
