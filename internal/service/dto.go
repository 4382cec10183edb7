package service

import "maintenance-service/internal/model"

type CreateUserInput struct {
	Email         string                 `json:"email"`
	Password      string                 `json:"password"`
	Name          string                 `json:"name"`
	Role          model.Role             `json:"role,omitempty"`
	CompanyID     string                 `json:"companyId"`
	IsActive      *bool                  `json:"isActive,omitempty"`
	EmailVerified bool                   `json:"emailVerified,omitempty"`
	Preferences   *model.UserPreferences `json:"preferences,omitempty"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

type CreateCompanyInput struct {
	Name     string                 `json:"name"`
	Logo     string                 `json:"logo,omitempty"`
	Branding *model.Branding        `json:"branding,omitempty"`
	Settings *model.CompanySettings `json:"settings,omitempty"`
}

type CreateAccountInput struct {
	CompanyID      string `json:"companyId"`
	SubscriptionID string `json:"subscriptionId"`
}

type CreateSubscriptionInput struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Settings    []model.EntitySetting `json:"settings"`
	CompanyID   string                `json:"companyId,omitempty"`
}
