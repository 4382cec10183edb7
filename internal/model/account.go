package model

// Account binds a company to its subscription. A company has at most one live account.
type Account struct {
	Base
	SubscriptionID string `json:"subscriptionId" gorm:"type:varchar(36);index;not null"`
}

type AccountPatch struct {
	CompanyID      *string `json:"companyId,omitempty"`
	SubscriptionID *string `json:"subscriptionId,omitempty"`
}

// Apply copies the set fields onto a and returns the touched columns
func (p AccountPatch) Apply(a *Account) []string {
	var columns []string
	if p.CompanyID != nil {
		a.CompanyID = *p.CompanyID
		columns = append(columns, "company_id")
	}
	if p.SubscriptionID != nil {
		a.SubscriptionID = *p.SubscriptionID
		columns = append(columns, "subscription_id")
	}
	return columns
}

type AccountFilter struct {
	CompanyID      string
	SubscriptionID string
	PageQuery
}
