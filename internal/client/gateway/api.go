package gateway

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/trace/internal/client/models"
)

// Authenticate exchanges an identity-provider token and profile for a
// backend session token and user record.
func (c *Client) Authenticate(ctx context.Context, providerToken string, profile models.ProviderUser) (string, *models.User, error) {
	in := struct {
		AccessToken string              `json:"access_token"`
		UserInfo    models.ProviderUser `json:"user_info"`
	}{providerToken, profile}

	var out struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, c.endpoints.Authenticate, "", in, &out); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.User == nil {
		return "", nil, &BackendError{Status: http.StatusOK, Message: "authentication response is missing token or user"}
	}
	return out.Token, out.User, nil
}

func (c *Client) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoints.Verify, token, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) SubscriptionStatus(ctx context.Context, token string) (models.Subscription, error) {
	var out struct {
		Subscription models.Subscription `json:"subscription"`
	}
	err := c.do(ctx, http.MethodGet, c.endpoints.SubscriptionStatus, token, nil, &out)
	return out.Subscription, err
}

// RefreshSubscription asks the backend to re-read billing state and returns
// the updated subscription with the backend's message.
func (c *Client) RefreshSubscription(ctx context.Context, token string) (models.Subscription, string, error) {
	var out struct {
		Message      string              `json:"message"`
		Subscription models.Subscription `json:"subscription"`
	}
	err := c.do(ctx, http.MethodPost, c.endpoints.SubscriptionRefresh, token, struct{}{}, &out)
	return out.Subscription, out.Message, err
}

func (c *Client) CreateCheckoutSession(ctx context.Context, token, priceID string) (models.Checkout, error) {
	in := struct {
		PriceID string `json:"price_id"`
	}{priceID}
	var out models.Checkout
	err := c.do(ctx, http.MethodPost, c.endpoints.Checkout, token, in, &out)
	return out, err
}

func (c *Client) CancelSubscription(ctx context.Context, token string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, c.endpoints.CancelSubscription, token, struct{}{}, &out)
	return out.Message, err
}

func (c *Client) Summarize(ctx context.Context, token string, req models.SummarizeRequest) (models.Summary, error) {
	if req.Action == "" {
		req.Action = "summarize"
	}
	var out models.Summary
	err := c.do(ctx, http.MethodPost, c.endpoints.Summarize, token, req, &out)
	return out, err
}

func (c *Client) GetPreferences(ctx context.Context, token string) (models.Preferences, error) {
	var out struct {
		Preferences models.Preferences `json:"preferences"`
	}
	err := c.do(ctx, http.MethodGet, c.endpoints.Preferences, token, nil, &out)
	return out.Preferences, err
}

// SavePreferences stores prefs and returns what the backend persisted.
func (c *Client) SavePreferences(ctx context.Context, token string, prefs models.Preferences) (models.Preferences, error) {
	var out struct {
		Preferences models.Preferences `json:"preferences"`
	}
	err := c.do(ctx, http.MethodPost, c.endpoints.Preferences, token, prefs, &out)
	return out.Preferences, err
}

func (c *Client) SubmitFeedback(ctx context.Context, token string, fb models.Feedback) error {
	return c.do(ctx, http.MethodPost, c.endpoints.Feedback, token, fb, nil)
}

func (c *Client) UsageStats(ctx context.Context, token string) (models.UsageStats, error) {
	var out models.UsageStats
	err := c.do(ctx, http.MethodGet, c.endpoints.UsageStats, token, nil, &out)
	return out, err
}

// Health calls the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	var out models.Health
	err := c.do(ctx, http.MethodGet, c.endpoints.Health, "", nil, &out)
	return out, err
}

// Test calls the backend's echo endpoint.
func (c *Client) Test(ctx context.Context) (models.Health, error) {
	var out models.Health
	if err := c.do(ctx, http.MethodGet, c.endpoints.Test, "", nil, &out); err != nil {
		return out, err
	}
	if out.Status == "" {
		out.Status = "ok"
	}
	return out, nil
}
