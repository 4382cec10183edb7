package model

import "gorm.io/datatypes"

const DefaultPrimaryColor = "#3B82F6"

type Branding struct {
	AppName        string `json:"appName,omitempty" bson:"app_name,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty" bson:"primary_color,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty" bson:"secondary_color,omitempty"`
	AccentColor    string `json:"accentColor,omitempty" bson:"accent_color,omitempty"`
	Logo           string `json:"logo,omitempty" bson:"logo,omitempty"`
}

type CompanySettings struct {
	AllowUserRegistration    bool `json:"allowUserRegistration" bson:"allow_user_registration"`
	RequireEmailVerification bool `json:"requireEmailVerification" bson:"require_email_verification"`
	DefaultUserRole          Role `json:"defaultUserRole" bson:"default_user_role"`
}

// DefaultCompanySettings is applied when a company is created without settings
func DefaultCompanySettings() CompanySettings {
	return CompanySettings{
		AllowUserRegistration:    true,
		RequireEmailVerification: true,
		DefaultUserRole:          RoleUser,
	}
}

// Company represents a tenant organisation
type Company struct {
	Base
	Name     string                              `json:"name" gorm:"type:varchar(255);index;not null"`
	Logo     string                              `json:"logo,omitempty" gorm:"type:text"`
	Branding datatypes.JSONType[Branding]        `json:"branding"`
	Settings datatypes.JSONType[CompanySettings] `json:"settings"`
}

type CompanyPatch struct {
	Name     *string          `json:"name,omitempty"`
	Logo     *string          `json:"logo,omitempty"`
	Branding *Branding        `json:"branding,omitempty"`
	Settings *CompanySettings `json:"settings,omitempty"`
}

// Apply copies the set fields onto c and returns the touched columns
func (p CompanyPatch) Apply(c *Company) []string {
	var columns []string
	if p.Name != nil {
		c.Name = *p.Name
		columns = append(columns, "name")
	}
	if p.Logo != nil {
		c.Logo = *p.Logo
		columns = append(columns, "logo")
	}
	if p.Branding != nil {
		c.Branding = datatypes.NewJSONType(*p.Branding)
		columns = append(columns, "branding")
	}
	if p.Settings != nil {
		c.Settings = datatypes.NewJSONType(*p.Settings)
		columns = append(columns, "settings")
	}
	return columns
}
