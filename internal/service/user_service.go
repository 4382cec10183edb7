package service

import (
	"context"
	"strings"
	"time"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/errs"
	"maintenance-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

const (
	entityUsers = "users"

	minPasswordLength = 6

	msgEmailTaken        = "User with this email already exists"
	msgWrongPassword     = "Current password is incorrect"
	msgUserNotRestorable = "User not found or not deleted"
)

// UserService manages company-scoped users
type UserService struct {
	users  repository.UserRepository
	quota  *QuotaService
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService wires the user store; quota may be nil to skip limit enforcement
func NewUserService(users repository.UserRepository, quota *QuotaService, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, quota: quota, logger: logger, now: time.Now}
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	email := model.NormalizeEmail(in.Email)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, errs.BadRequest("A valid email is required")
	case strings.TrimSpace(in.Name) == "":
		return nil, errs.BadRequest("Name is required")
	case len(in.Password) < minPasswordLength:
		return nil, errs.BadRequest("Password must be at least 6 characters")
	case in.CompanyID == "":
		return nil, errs.BadRequest("Company is required")
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, errs.BadRequest("Invalid role")
	}

	taken, err := s.users.EmailTaken(ctx, email, "")
	if err != nil {
		return nil, errs.Internal("email lookup failed", err)
	}
	if taken {
		return nil, errs.Conflict(msgEmailTaken)
	}

	if s.quota != nil {
		if err := s.quota.Enforce(ctx, in.CompanyID, entityUsers); err != nil {
			return nil, err
		}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, errs.Internal("password hashing failed", err)
	}

	preferences := model.DefaultUserPreferences()
	if in.Preferences != nil {
		preferences = *in.Preferences
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	user := &model.User{
		Base:          model.Base{CompanyID: in.CompanyID},
		Email:         email,
		Password:      hash,
		Name:          strings.TrimSpace(in.Name),
		Role:          role,
		IsActive:      active,
		EmailVerified: in.EmailVerified,
		Preferences:   datatypes.NewJSONType(preferences),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, writeError(err, msgUserNotFound, msgEmailTaken)
	}

	prometheus.RecordEntityOperation(entityUsers, "create")
	s.logger.Info("User created",
		zap.String("user_id", user.ID),
		zap.String("company_id", user.CompanyID),
		zap.String("role", string(user.Role)))

	user.Password = ""
	return user, nil
}

func (s *UserService) List(ctx context.Context, filter model.UserFilter) (model.Page[model.User], error) {
	filter.PageQuery = filter.PageQuery.Normalize(model.UserSortKeys)
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return model.Page[model.User]{}, errs.Internal("user listing failed", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return model.NewPage(users, total, filter.PageQuery), nil
}

func (s *UserService) FindOne(ctx context.Context, id, companyID string) (*model.User, error) {
	user, err := s.users.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	user.Password = ""
	return user, nil
}

// FindByEmail returns the user including its password hash
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id, companyID string, patch model.UserPatch) (*model.User, error) {
	user, err := s.users.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}

	if patch.Email != nil {
		taken, err := s.users.EmailTaken(ctx, *patch.Email, id)
		if err != nil {
			return nil, errs.Internal("email lookup failed", err)
		}
		if taken {
			return nil, errs.Conflict(msgEmailTaken)
		}
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, errs.BadRequest("Invalid role")
	}

	columns := patch.Apply(user)
	if err := s.users.Update(ctx, user, columns); err != nil {
		return nil, writeError(err, msgUserNotFound, msgEmailTaken)
	}

	prometheus.RecordEntityOperation(entityUsers, "update")
	user.Password = ""
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash
func (s *UserService) ChangePassword(ctx context.Context, id, companyID string, in ChangePasswordInput) error {
	if len(in.NewPassword) < minPasswordLength {
		return errs.BadRequest("Password must be at least 6 characters")
	}

	user, err := s.users.FindScoped(ctx, id, companyID)
	if err != nil {
		return lookupError(err, msgUserNotFound)
	}
	if !checkPassword(user.Password, in.CurrentPassword) {
		return errs.Unauthorized(msgWrongPassword)
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return errs.Internal("password hashing failed", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return writeError(err, msgUserNotFound, msgEmailTaken)
	}

	s.logger.Info("Password changed", zap.String("user_id", id))
	return nil
}

func (s *UserService) UpdateLastLogin(ctx context.Context, id string) error {
	if err := s.users.TouchLastLogin(ctx, id, s.now()); err != nil {
		return writeError(err, msgUserNotFound, msgEmailTaken)
	}
	return nil
}

func (s *UserService) VerifyEmail(ctx context.Context, id, companyID string) (*model.User, error) {
	verified := true
	return s.Update(ctx, id, companyID, model.UserPatch{EmailVerified: &verified})
}

func (s *UserService) SoftDelete(ctx context.Context, id, companyID string) (*model.User, error) {
	user, err := s.users.SoftDelete(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	prometheus.RecordEntityOperation(entityUsers, "delete")
	user.Password = ""
	return user, nil
}

func (s *UserService) Restore(ctx context.Context, id, companyID string) (*model.User, error) {
	user, err := s.users.Restore(ctx, id, companyID)
	if err != nil {
		return nil, writeError(err, msgUserNotRestorable, msgEmailTaken)
	}
	prometheus.RecordEntityOperation(entityUsers, "restore")
	user.Password = ""
	return user, nil
}

func (s *UserService) FindDeleted(ctx context.Context, companyID string) ([]model.User, error) {
	users, err := s.users.FindDeleted(ctx, companyID)
	if err != nil {
		return nil, errs.Internal("deleted user listing failed", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
