// Package models defines the records exchanged between the worker, its UI
// surfaces and the backend. JSON tags follow the backend's field names.
package models

// SubscriptionStatus is the billing state cached in the user record.
type SubscriptionStatus string

const (
	SubscriptionNone     SubscriptionStatus = "none"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// User is the signed-in account as the backend serialises it.
type User struct {
	ID                 int64              `json:"id"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	Picture            string             `json:"picture,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status,omitempty"`
	CurrentPeriodEnd   *string            `json:"current_period_end,omitempty"`
	PlanID             *string            `json:"plan_id,omitempty"`
	Preferences        *Preferences       `json:"preferences,omitempty"`
}

// Clone returns a deep copy, so callers can hand out users without sharing
// the session's record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CurrentPeriodEnd != nil {
		v := *u.CurrentPeriodEnd
		c.CurrentPeriodEnd = &v
	}
	if u.PlanID != nil {
		v := *u.PlanID
		c.PlanID = &v
	}
	if u.Preferences != nil {
		p := *u.Preferences
		c.Preferences = &p
	}
	return &c
}

// ProviderUser is the identity-provider profile sent to the backend when
// authenticating.
type ProviderUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	GivenName     string `json:"given_name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	VerifiedEmail bool   `json:"verified_email,omitempty"`
}
