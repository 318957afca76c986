package gateway

// Endpoints are the backend paths, relative to the base URL.
type Endpoints struct {
	Authenticate        string `json:"authenticate"`
	Verify              string `json:"verify"`
	SubscriptionStatus  string `json:"subscription_status"`
	SubscriptionRefresh string `json:"subscription_refresh"`
	Checkout            string `json:"checkout"`
	CancelSubscription  string `json:"cancel_subscription"`
	Summarize           string `json:"summarize"`
	Preferences         string `json:"preferences"`
	Feedback            string `json:"feedback"`
	UsageStats          string `json:"usage_stats"`
	Health              string `json:"health"`
	Test                string `json:"test"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Authenticate:        "/api/auth/google",
		Verify:              "/api/auth/verify",
		SubscriptionStatus:  "/api/subscription/status",
		SubscriptionRefresh: "/api/subscription/refresh",
		Checkout:            "/api/subscription/create-checkout-session",
		CancelSubscription:  "/api/subscription/cancel",
		Summarize:           "/api/summarize",
		Preferences:         "/api/preferences",
		Feedback:            "/api/feedback",
		UsageStats:          "/api/usage/stats",
		Health:              "/health",
		Test:                "/api/test",
	}
}
