package models

// Subscription is the backend's subscription summary.
type Subscription struct {
	Status           SubscriptionStatus `json:"status"`
	SubscriptionID   *string            `json:"subscription_id,omitempty"`
	CurrentPeriodEnd *string            `json:"current_period_end"`
	PlanID           *string            `json:"plan_id"`
}

// Checkout is a created checkout session.
type Checkout struct {
	URL       string `json:"checkout_url"`
	SessionID string `json:"session_id,omitempty"`
}

// UsageStats summarises the user's summarize calls.
type UsageStats struct {
	TotalRequests int     `json:"total_requests"`
	MonthRequests int     `json:"month_requests"`
	TotalCost     float64 `json:"total_cost"`
}
