package model

import "gorm.io/datatypes"

// EntitySetting caps how many records of Entity a company may create
type EntitySetting struct {
	Entity              string `json:"entity" bson:"entity"`
	CreateLimitRegistry int64  `json:"createLimitRegistry" bson:"create_limit_registry"`
}

// Subscription is a plan with ordered per-entity limits
type Subscription struct {
	Base
	Name        string                             `json:"name" gorm:"type:varchar(255);index;not null"`
	Description string                             `json:"description,omitempty" gorm:"type:text"`
	Settings    datatypes.JSONSlice[EntitySetting] `json:"settings"`
}

// LimitFor returns the first setting for entity in list order
func (s *Subscription) LimitFor(entity string) (EntitySetting, bool) {
	for _, setting := range s.Settings {
		if setting.Entity == entity {
			return setting, true
		}
	}
	return EntitySetting{}, false
}

type SubscriptionPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Settings    *[]EntitySetting `json:"settings,omitempty"`
}

// Apply copies the set fields onto s and returns the touched columns
func (p SubscriptionPatch) Apply(s *Subscription) []string {
	var columns []string
	if p.Name != nil {
		s.Name = *p.Name
		columns = append(columns, "name")
	}
	if p.Description != nil {
		s.Description = *p.Description
		columns = append(columns, "description")
	}
	if p.Settings != nil {
		s.Settings = datatypes.JSONSlice[EntitySetting](*p.Settings)
		columns = append(columns, "settings")
	}
	return columns
}
