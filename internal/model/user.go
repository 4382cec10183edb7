package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Role is the coarse-grained authorization level of a user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

type NotificationPreferences struct {
	Email bool `json:"email" bson:"email"`
	Push  bool `json:"push" bson:"push"`
}

type UserPreferences struct {
	Theme         string                  `json:"theme" bson:"theme"`
	Language      string                  `json:"language" bson:"language"`
	Notifications NotificationPreferences `json:"notifications" bson:"notifications"`
}

// DefaultUserPreferences is applied when a user is created without preferences
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		Theme:    "light",
		Language: "en",
		Notifications: NotificationPreferences{
			Email: true,
			Push:  true,
		},
	}
}

// User represents the user model stored in the database
type User struct {
	Base
	Email         string                              `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password      string                              `json:"-" gorm:"type:varchar(255);not null"`
	Name          string                              `json:"name" gorm:"type:varchar(255);not null"`
	Role          Role                                `json:"role" gorm:"type:varchar(20);not null"`
	IsActive      bool                                `json:"isActive" gorm:"not null"`
	EmailVerified bool                                `json:"emailVerified" gorm:"not null"`
	LastLogin     *time.Time                          `json:"lastLogin,omitempty"`
	Preferences   datatypes.JSONType[UserPreferences] `json:"preferences"`
}

// NormalizeEmail lowercases and trims an address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch is a partial update; nil fields are left untouched
type UserPatch struct {
	Email         *string          `json:"email,omitempty"`
	Name          *string          `json:"name,omitempty"`
	Role          *Role            `json:"role,omitempty"`
	IsActive      *bool            `json:"isActive,omitempty"`
	EmailVerified *bool            `json:"emailVerified,omitempty"`
	Preferences   *UserPreferences `json:"preferences,omitempty"`
}

// Apply copies the set fields onto u and returns the touched columns
func (p UserPatch) Apply(u *User) []string {
	var columns []string
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
		columns = append(columns, "email")
	}
	if p.Name != nil {
		u.Name = *p.Name
		columns = append(columns, "name")
	}
	if p.Role != nil {
		u.Role = *p.Role
		columns = append(columns, "role")
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
		columns = append(columns, "is_active")
	}
	if p.EmailVerified != nil {
		u.EmailVerified = *p.EmailVerified
		columns = append(columns, "email_verified")
	}
	if p.Preferences != nil {
		u.Preferences = datatypes.NewJSONType(*p.Preferences)
		columns = append(columns, "preferences")
	}
	return columns
}

// UserFilter narrows user listings within a company
type UserFilter struct {
	CompanyID     string
	Role          Role
	IsActive      *bool
	EmailVerified *bool
	PageQuery
}
