package model

type UserSession struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Role        Role            `json:"role"`
	Preferences UserPreferences `json:"preferences"`
}

type CompanySession struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Logo     string          `json:"logo,omitempty"`
	Branding Branding        `json:"branding"`
	Settings CompanySettings `json:"settings"`
}

type SubscriptionSession struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Settings    []EntitySetting `json:"settings"`
}

// Session is the request-time projection of a user, its company and subscription.
// It is never stored.
type Session struct {
	User         UserSession         `json:"user"`
	Company      CompanySession      `json:"company"`
	Subscription SubscriptionSession `json:"subscription"`
}

// NewSession assembles the projection from resolved records
func NewSession(user *User, company *Company, subscription *Subscription) *Session {
	settings := make([]EntitySetting, len(subscription.Settings))
	copy(settings, subscription.Settings)

	return &Session{
		User: UserSession{
			ID:          user.ID,
			Email:       user.Email,
			Name:        user.Name,
			Role:        user.Role,
			Preferences: user.Preferences.Data(),
		},
		Company: CompanySession{
			ID:       company.ID,
			Name:     company.Name,
			Logo:     company.Logo,
			Branding: company.Branding.Data(),
			Settings: company.Settings.Data(),
		},
		Subscription: SubscriptionSession{
			ID:          subscription.ID,
			Name:        subscription.Name,
			Description: subscription.Description,
			Settings:    settings,
		},
	}
}

// AuthResponse is returned by login, register and refresh
type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"`
	Session      *Session `json:"session"`
}

// QuotaResult is the outcome of evaluating a subscription limit
type QuotaResult struct {
	Allowed bool  `json:"allowed"`
	Limit   int64 `json:"limit"`
	Current int64 `json:"current"`
}

// Unlimited is the Limit reported when no setting applies
const Unlimited int64 = -1
