package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/errs"
	"maintenance-service/pkg/jwtutil"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServiceSuite struct {
	suite.Suite
	ctx   context.Context
	db    *gorm.DB
	store *repository.Store

	sessions      *SessionService
	quota         *QuotaService
	users         *UserService
	companies     *CompanyService
	accounts      *AccountService
	subscriptions *SubscriptionService
	authService   *AuthService
	tokens        *jwtutil.JWTUtil
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file:"+strings.ReplaceAll(s.T().Name(), "/", "_")+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(&model.Company{}, &model.Subscription{}, &model.Account{}, &model.User{}))
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.ctx = context.Background()
	s.db = db
	s.store = repository.NewGormStore(db)
	s.sessions = NewSessionService(s.store, nil)
	s.quota = NewQuotaService(s.store)
	s.users = NewUserService(s.store.Users, s.quota, nil)
	s.companies = NewCompanyService(s.store.Companies, nil)
	s.accounts = NewAccountService(s.store.Accounts, s.store.Subscriptions, nil)
	s.subscriptions = NewSubscriptionService(s.store.Subscriptions, nil)
	s.tokens = jwtutil.NewJWTUtil(&jwtutil.JWTConfig{Secret: "test-secret", AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour})
	s.authService = NewAuthService(s.users, s.store.Companies, s.sessions, s.tokens, auth.NewLocalValidator(s.tokens, nil), nil)
}

func (s *ServiceSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())
}

// tenant creates a company with a subscription and account. Settings are the user quota.
func (s *ServiceSuite) tenant(name string, settings ...model.EntitySetting) (*model.Company, *model.Subscription, *model.Account) {
	company, err := s.companies.Create(s.ctx, CreateCompanyInput{Name: name})
	s.Require().NoError(err)
	subscription, err := s.subscriptions.Create(s.ctx, CreateSubscriptionInput{
		Name:      name + " plan",
		Settings:  settings,
		CompanyID: company.ID,
	})
	s.Require().NoError(err)
	account, err := s.accounts.Create(s.ctx, CreateAccountInput{CompanyID: company.ID, SubscriptionID: subscription.ID})
	s.Require().NoError(err)
	return company, subscription, account
}

func (s *ServiceSuite) user(companyID, email string) *model.User {
	user, err := s.users.Create(s.ctx, CreateUserInput{
		Email:     email,
		Password:  "password123",
		Name:      "Test " + email,
		CompanyID: companyID,
	})
	s.Require().NoError(err)
	return user
}

func (s *ServiceSuite) TestBuildSession() {
	company, subscription, _ := s.tenant("Acme", model.EntitySetting{Entity: "users", CreateLimitRegistry: 5})
	user := s.user(company.ID, "Ana@Example.com")

	session, err := s.sessions.BuildSession(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.ID, session.User.ID)
	s.Equal("ana@example.com", session.User.Email)
	s.Equal(company.ID, session.Company.ID)
	s.Equal(subscription.ID, session.Subscription.ID)
	s.Equal("Acme", session.Company.Branding.AppName)
	s.Equal(model.DefaultPrimaryColor, session.Company.Branding.PrimaryColor)
	s.Equal(model.DefaultUserPreferences(), session.User.Preferences)
	s.Equal([]model.EntitySetting{{Entity: "users", CreateLimitRegistry: 5}}, session.Subscription.Settings)
}

func (s *ServiceSuite) TestBuildSessionNotFoundOrder() {
	_, err := s.sessions.BuildSession(s.ctx, "missing")
	s.ErrorIs(err, errs.ErrNotFound)
	s.Equal(msgUserNotFound, err.Error())

	company, subscription, account := s.tenant("Acme")
	user := s.user(company.ID, "ana@example.com")

	// subscription gone: account still resolves
	_, err = s.subscriptions.SoftDelete(s.ctx, subscription.ID, company.ID)
	s.Require().NoError(err)
	_, err = s.sessions.BuildSession(s.ctx, user.ID)
	s.Equal(msgSubscriptionNotFound, err.Error())

	// account gone wins over subscription
	_, err = s.accounts.SoftDelete(s.ctx, account.ID, company.ID)
	s.Require().NoError(err)
	_, err = s.sessions.BuildSession(s.ctx, user.ID)
	s.Equal(msgAccountNotFound, err.Error())

	// company gone wins over account
	_, err = s.companies.SoftDelete(s.ctx, company.ID, company.ID)
	s.Require().NoError(err)
	_, err = s.sessions.BuildSession(s.ctx, user.ID)
	s.ErrorIs(err, errs.ErrNotFound)
	s.Equal(msgCompanyNotFound, err.Error())
}

func (s *ServiceSuite) TestValidateUserAccessAndPermissions() {
	company, _, _ := s.tenant("Acme")
	user := s.user(company.ID, "ana@example.com")

	s.True(s.sessions.ValidateUserAccess(s.ctx, user.ID, company.ID))
	s.False(s.sessions.ValidateUserAccess(s.ctx, user.ID, "other"))
	s.False(s.sessions.ValidateUserAccess(s.ctx, "missing", company.ID))

	s.Equal(auth.PermissionsForRole("user"), s.sessions.UserPermissions(s.ctx, user.ID))
	s.Empty(s.sessions.UserPermissions(s.ctx, "missing"))
}

func (s *ServiceSuite) TestQuota() {
	company, _, _ := s.tenant("Acme", model.EntitySetting{Entity: "users", CreateLimitRegistry: 5})

	for i := 0; i < 4; i++ {
		s.user(company.ID, "user"+string(rune('a'+i))+"@example.com")
	}
	result, err := s.quota.CheckEntityLimit(s.ctx, company.ID, "users")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{Allowed: true, Limit: 5, Current: 4}, result)

	s.user(company.ID, "usere@example.com")
	result, err = s.quota.CheckEntityLimit(s.ctx, company.ID, "users")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{Allowed: false, Limit: 5, Current: 5}, result)

	_, err = s.users.Create(s.ctx, CreateUserInput{Email: "sixth@example.com", Password: "password123", Name: "Six", CompanyID: company.ID})
	s.ErrorIs(err, errs.ErrForbidden)
}

func (s *ServiceSuite) TestQuotaWithoutSettingOrAccount() {
	company, _, account := s.tenant("Acme", model.EntitySetting{Entity: "locations", CreateLimitRegistry: 1})
	s.user(company.ID, "ana@example.com")

	result, err := s.quota.CheckEntityLimit(s.ctx, company.ID, "users")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{Allowed: true, Limit: model.Unlimited, Current: 1}, result)

	_, err = s.accounts.SoftDelete(s.ctx, account.ID, company.ID)
	s.Require().NoError(err)
	result, err = s.quota.CheckEntityLimit(s.ctx, company.ID, "users")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{}, result)

	result, err = s.quota.CheckEntityLimit(s.ctx, company.ID, "locations")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{}, result, "no account fails closed for uncounted entities too")
}

func (s *ServiceSuite) TestQuotaForEntitiesWithoutCounter() {
	company, _, _ := s.tenant("Acme",
		model.EntitySetting{Entity: "locations", CreateLimitRegistry: 3},
		model.EntitySetting{Entity: "operations", CreateLimitRegistry: 0},
	)

	result, err := s.quota.CheckEntityLimit(s.ctx, company.ID, "integration-jobs")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{Allowed: true, Limit: model.Unlimited, Current: 0}, result)

	result, err = s.quota.CheckEntityLimit(s.ctx, company.ID, "locations")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{Allowed: true, Limit: 3, Current: 0}, result)

	result, err = s.quota.CheckEntityLimit(s.ctx, company.ID, "operations")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{Allowed: false, Limit: 0, Current: 0}, result)

	result, err = s.quota.CheckEntityLimit(s.ctx, "company-without-account", "locations")
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{}, result)
}

func (s *ServiceSuite) TestEvaluateEntityLimitFirstSettingWins() {
	company, _, _ := s.tenant("Acme",
		model.EntitySetting{Entity: "locations", CreateLimitRegistry: 2},
		model.EntitySetting{Entity: "locations", CreateLimitRegistry: 100},
	)

	result, err := s.quota.EvaluateEntityLimit(s.ctx, company.ID, "locations", 2)
	s.Require().NoError(err)
	s.Equal(model.QuotaResult{Allowed: false, Limit: 2, Current: 2}, result)

	result, err = s.quota.EvaluateEntityLimit(s.ctx, "no-such-company", "locations", 0)
	s.Require().NoError(err)
	s.False(result.Allowed)
}

func (s *ServiceSuite) TestUserLifecycle() {
	company, _, _ := s.tenant("Acme")
	user := s.user(company.ID, "ana@example.com")
	s.Empty(user.Password)
	s.True(user.IsActive)
	s.Equal(model.RoleUser, user.Role)

	_, err := s.users.Create(s.ctx, CreateUserInput{Email: "ANA@example.com", Password: "password123", Name: "Dup", CompanyID: company.ID})
	s.ErrorIs(err, errs.ErrConflict)
	s.Equal(msgEmailTaken, err.Error())

	other := s.user(company.ID, "bob@example.com")
	_, err = s.users.Update(s.ctx, other.ID, company.ID, model.UserPatch{Email: ptr("ana@example.com")})
	s.ErrorIs(err, errs.ErrConflict)

	updated, err := s.users.Update(s.ctx, user.ID, company.ID, model.UserPatch{Name: ptr("Ana B")})
	s.Require().NoError(err)
	s.Equal("Ana B", updated.Name)

	verified, err := s.users.VerifyEmail(s.ctx, user.ID, company.ID)
	s.Require().NoError(err)
	s.True(verified.EmailVerified)

	_, err = s.users.FindOne(s.ctx, user.ID, "other-company")
	s.ErrorIs(err, errs.ErrNotFound)

	_, err = s.users.Restore(s.ctx, user.ID, company.ID)
	s.ErrorIs(err, errs.ErrNotFound)
	s.Equal(msgUserNotRestorable, err.Error())

	deleted, err := s.users.SoftDelete(s.ctx, user.ID, company.ID)
	s.Require().NoError(err)
	s.NotNil(deleted.DeletedAt())

	_, err = s.users.FindOne(s.ctx, user.ID, company.ID)
	s.ErrorIs(err, errs.ErrNotFound)

	gone, err := s.users.FindDeleted(s.ctx, company.ID)
	s.Require().NoError(err)
	s.Len(gone, 1)

	restored, err := s.users.Restore(s.ctx, user.ID, company.ID)
	s.Require().NoError(err)
	s.Nil(restored.DeletedAt())
}

func (s *ServiceSuite) TestUserListing() {
	company, _, _ := s.tenant("Acme")
	s.user(company.ID, "ana@example.com")
	s.user(company.ID, "bob@example.com")
	s.user(company.ID, "carol@example.com")

	page, err := s.users.List(s.ctx, model.UserFilter{CompanyID: company.ID, PageQuery: model.PageQuery{Limit: 2, SortBy: "email", SortOrder: "asc"}})
	s.Require().NoError(err)
	s.Len(page.Data, 2)
	s.Equal("ana@example.com", page.Data[0].Email)
	s.Equal(model.Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2, HasNext: true, HasPrev: false}, page.Pagination)

	page, err = s.users.List(s.ctx, model.UserFilter{CompanyID: company.ID, PageQuery: model.PageQuery{Search: "BOB"}})
	s.Require().NoError(err)
	s.Len(page.Data, 1)
}

func (s *ServiceSuite) TestChangePassword() {
	company, _, _ := s.tenant("Acme")
	user := s.user(company.ID, "ana@example.com")

	err := s.users.ChangePassword(s.ctx, user.ID, company.ID, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "newpassword"})
	s.ErrorIs(err, errs.ErrUnauthorized)
	s.Equal(msgWrongPassword, err.Error())

	s.Require().NoError(s.users.ChangePassword(s.ctx, user.ID, company.ID, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "newpassword"}))

	_, err = s.authService.Login(s.ctx, LoginInput{Email: "ana@example.com", Password: "password123"})
	s.ErrorIs(err, errs.ErrUnauthorized)
	_, err = s.authService.Login(s.ctx, LoginInput{Email: "ana@example.com", Password: "newpassword"})
	s.NoError(err)
}

func (s *ServiceSuite) TestCompanyRules() {
	company, _, _ := s.tenant("Acme")
	s.Equal(company.ID, company.CompanyID, "a company scopes itself")
	s.Equal(model.DefaultCompanySettings(), company.Settings.Data())

	_, err := s.companies.Create(s.ctx, CreateCompanyInput{Name: "Acme"})
	s.ErrorIs(err, errs.ErrConflict)

	updated, err := s.companies.UpdateBranding(s.ctx, company.ID, company.ID, model.Branding{SecondaryColor: "#000000"})
	s.Require().NoError(err)
	s.Equal("Acme", updated.Branding.Data().AppName)
	s.Equal("#000000", updated.Branding.Data().SecondaryColor)

	updated, err = s.companies.UpdateSettings(s.ctx, company.ID, company.ID, model.CompanySettings{AllowUserRegistration: false})
	s.Require().NoError(err)
	s.False(updated.Settings.Data().AllowUserRegistration)
	s.Equal(model.RoleUser, updated.Settings.Data().DefaultUserRole)
}

func (s *ServiceSuite) TestAccountRules() {
	company, subscription, account := s.tenant("Acme")

	_, err := s.accounts.Create(s.ctx, CreateAccountInput{CompanyID: company.ID, SubscriptionID: subscription.ID})
	s.ErrorIs(err, errs.ErrConflict)
	s.Equal(msgAccountExists, err.Error())

	other, _ := s.companies.Create(s.ctx, CreateCompanyInput{Name: "Other"})
	_, err = s.accounts.Create(s.ctx, CreateAccountInput{CompanyID: other.ID, SubscriptionID: "missing"})
	s.ErrorIs(err, errs.ErrNotFound)

	_, err = s.accounts.SoftDelete(s.ctx, account.ID, company.ID)
	s.Require().NoError(err)
	replacement, err := s.accounts.Create(s.ctx, CreateAccountInput{CompanyID: company.ID, SubscriptionID: subscription.ID})
	s.Require().NoError(err)

	_, err = s.accounts.Restore(s.ctx, account.ID, company.ID)
	s.ErrorIs(err, errs.ErrConflict, "restoring beside a live account")

	found, err := s.accounts.FindByCompany(s.ctx, company.ID)
	s.Require().NoError(err)
	s.Equal(replacement.ID, found.ID)
}

func (s *ServiceSuite) TestSubscriptionRules() {
	company, subscription, _ := s.tenant("Acme")

	_, err := s.subscriptions.Create(s.ctx, CreateSubscriptionInput{Name: subscription.Name, CompanyID: company.ID})
	s.ErrorIs(err, errs.ErrConflict)

	_, err = s.subscriptions.Create(s.ctx, CreateSubscriptionInput{
		Name:      "Broken",
		CompanyID: company.ID,
		Settings:  []model.EntitySetting{{Entity: "users", CreateLimitRegistry: -1}},
	})
	s.ErrorIs(err, errs.ErrBadRequest)

	settings := []model.EntitySetting{{Entity: "users", CreateLimitRegistry: 50}}
	updated, err := s.subscriptions.Update(s.ctx, subscription.ID, company.ID, model.SubscriptionPatch{Settings: &settings})
	s.Require().NoError(err)
	s.Equal(settings, []model.EntitySetting(updated.Settings))
}

func (s *ServiceSuite) TestLoginIssuesTokensAndSession() {
	company, _, _ := s.tenant("Acme")
	user := s.user(company.ID, "ana@example.com")

	resp, err := s.authService.Login(s.ctx, LoginInput{Email: " ANA@example.com ", Password: "password123"})
	s.Require().NoError(err)
	s.Equal(int64(3600), resp.ExpiresIn)
	s.Equal(user.ID, resp.Session.User.ID)

	claims, err := s.tokens.ValidateAccessToken(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(user.ID, claims.Subject)
	s.Equal(company.ID, claims.CompanyID)

	stored, err := s.store.Users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.NotNil(stored.LastLogin)

	_, err = s.authService.Login(s.ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	s.Equal(msgInvalidCredentials, err.Error())
}

func (s *ServiceSuite) TestLoginDeactivated() {
	company, _, _ := s.tenant("Acme")
	user := s.user(company.ID, "ana@example.com")
	_, err := s.users.Update(s.ctx, user.ID, company.ID, model.UserPatch{IsActive: ptr(false)})
	s.Require().NoError(err)

	_, err = s.authService.Login(s.ctx, LoginInput{Email: "ana@example.com", Password: "password123"})
	s.ErrorIs(err, errs.ErrUnauthorized)
	s.Equal(msgAccountDeactivated, err.Error())
}

func (s *ServiceSuite) TestRefresh() {
	company, _, _ := s.tenant("Acme")
	user := s.user(company.ID, "ana@example.com")

	login, err := s.authService.Login(s.ctx, LoginInput{Email: "ana@example.com", Password: "password123"})
	s.Require().NoError(err)

	refreshed, err := s.authService.Refresh(s.ctx, login.RefreshToken)
	s.Require().NoError(err)
	s.Equal(user.ID, refreshed.Session.User.ID)

	_, err = s.authService.Refresh(s.ctx, login.AccessToken)
	s.ErrorIs(err, errs.ErrUnauthorized, "access tokens cannot refresh")

	_, err = s.users.SoftDelete(s.ctx, user.ID, company.ID)
	s.Require().NoError(err)
	_, err = s.authService.Refresh(s.ctx, login.RefreshToken)
	s.ErrorIs(err, errs.ErrUnauthorized)
}

func (s *ServiceSuite) TestRegister() {
	company, _, _ := s.tenant("Acme")

	resp, err := s.authService.Register(s.ctx, CreateUserInput{
		Email: "new@example.com", Password: "password123", Name: "New", CompanyID: company.ID, Role: model.RoleAdmin,
	})
	s.Require().NoError(err)
	s.Equal(model.RoleUser, resp.Session.User.Role, "registration uses the company default role")

	_, err = s.companies.UpdateSettings(s.ctx, company.ID, company.ID, model.CompanySettings{AllowUserRegistration: false})
	s.Require().NoError(err)
	_, err = s.authService.Register(s.ctx, CreateUserInput{Email: "late@example.com", Password: "password123", Name: "Late", CompanyID: company.ID})
	s.ErrorIs(err, errs.ErrForbidden)
}

func (s *ServiceSuite) TestVerifyTokenAndLogout() {
	company, _, _ := s.tenant("Acme")
	s.user(company.ID, "ana@example.com")
	login, err := s.authService.Login(s.ctx, LoginInput{Email: "ana@example.com", Password: "password123"})
	s.Require().NoError(err)

	result, err := s.authService.VerifyToken(s.ctx, login.AccessToken)
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal(company.ID, result.User.CompanyID)

	_, err = s.authService.VerifyToken(s.ctx, "garbage")
	s.ErrorIs(err, errs.ErrUnauthorized)

	s.Equal(map[string]string{"message": "Logged out successfully"}, s.authService.Logout(s.ctx, result.User))
}

func ptr[T any](v T) *T {
	return &v
}
