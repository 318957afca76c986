package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("backend-secret")

func issue(t *testing.T, userID int64, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	s, err := tok.SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requireAuth mimics the backend's token_required decorator.
func requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Authorization token required"})
			return
		}
		_, err := jwt.Parse(strings.TrimPrefix(h, "Bearer "), func(*jwt.Token) (any, error) { return testSecret, nil },
			jwt.WithValidMethods([]string{"HS256"}))
		if errors.Is(err, jwt.ErrTokenExpired) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Token has expired"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid token"})
			return
		}
		next(w, r)
	}
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), func(context.Context) string { return srv.URL + "/" }, DefaultEndpoints(), logging.Nop{})
}

func TestClient_Authenticate(t *testing.T) {
	mux := http.NewServeMux()
	var gotAuthHeader string
	mux.HandleFunc("POST /api/auth/google", func(w http.ResponseWriter, r *http.Request) {
		gotAuthHeader = r.Header.Get("Authorization")
		var in struct {
			AccessToken string              `json:"access_token"`
			UserInfo    models.ProviderUser `json:"user_info"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "google-token", in.AccessToken)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   issue(t, 7, time.Hour),
			"user":    map[string]any{"id": 7, "email": in.UserInfo.Email, "name": in.UserInfo.Name, "subscription_status": "inactive"},
		})
	})
	c := newTestClient(t, mux)

	token, user, err := c.Authenticate(context.Background(), "google-token", models.ProviderUser{ID: "g1", Email: "a@b.c", Name: "Ann"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Empty(t, gotAuthHeader)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "a@b.c", user.Email)
	assert.Equal(t, models.SubscriptionInactive, user.SubscriptionStatus)
}

func TestClient_AuthenticateMissingToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/google", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	c := newTestClient(t, mux)

	_, _, err := c.Authenticate(context.Background(), "x", models.ProviderUser{})
	var be *BackendError
	require.ErrorAs(t, err, &be)
}

func TestClient_BearerHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/verify", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": map[string]any{"id": 3, "email": "u@x"}})
	}))
	c := newTestClient(t, mux)
	ctx := context.Background()

	user, err := c.VerifyToken(ctx, issue(t, 3, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)

	_, err = c.VerifyToken(ctx, "")
	require.ErrorIs(t, err, common.ErrAuthExpired)
	assert.EqualError(t, err, "Authorization token required")

	_, err = c.VerifyToken(ctx, issue(t, 3, -time.Minute))
	require.ErrorIs(t, err, common.ErrAuthExpired)
	assert.EqualError(t, err, "Token has expired")
	assert.True(t, IsAuthExpired(err))
}

func TestClient_ResponseHandling(t *testing.T) {
	longBody := strings.Repeat("x", 1000)
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "html error page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("<html>" + longBody + "</html>"))
			},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, common.ErrNetwork)
				var pe *ProtocolError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, http.StatusBadGateway, pe.Status)
				assert.Equal(t, "text/html", pe.ContentType)
				assert.True(t, strings.HasPrefix(pe.Body, "<html>"))
				assert.Len(t, pe.Body, maxDiagnosticBody+len("..."))
			},
		},
		{
			name: "non json with 200 is not parsed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte(`{"success":true}`))
			},
			check: func(t *testing.T, err error) {
				var pe *ProtocolError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, `{"success":true}`, pe.Body)
			},
		},
		{
			name: "json error field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "Active subscription required"})
			},
			check: func(t *testing.T, err error) {
				var be *BackendError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, http.StatusForbidden, be.Status)
				assert.EqualError(t, err, "Active subscription required")
				assert.NotErrorIs(t, err, common.ErrAuthExpired)
				assert.NotErrorIs(t, err, common.ErrNetwork)
			},
		},
		{
			name: "json without error field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "boom"})
			},
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "backend service error (500)")
			},
		},
		{
			name: "success false with 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Could not fetch page"})
			},
			check: func(t *testing.T, err error) {
				var be *BackendError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, http.StatusOK, be.Status)
				assert.EqualError(t, err, "Could not fetch page")
			},
		},
		{
			name: "charset parameter is accepted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				_, _ = w.Write([]byte(`{"summary":"S","is_article":true}`))
			},
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/summarize", tt.handler)
			c := newTestClient(t, mux)

			_, err := c.Summarize(context.Background(), "tok", models.SummarizeRequest{URL: "https://example.com"})
			tt.check(t, err)
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(nil, func(context.Context) string { return url }, DefaultEndpoints(), logging.Nop{})
	_, err := c.Health(context.Background())
	require.ErrorIs(t, err, common.ErrNetwork)
	var be *BackendError
	assert.False(t, errors.As(err, &be))
}

func TestClient_Summarize(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/summarize", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		var in models.SummarizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "summarize", in.Action)
		assert.Equal(t, "be brief", in.CustomPrompt)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"summary":      "S",
			"summary_data": map[string]any{"highlights": []string{"a"}},
			"is_article":   true,
		})
	}))
	c := newTestClient(t, mux)

	out, err := c.Summarize(context.Background(), issue(t, 1, time.Hour), models.SummarizeRequest{URL: "https://e.x", CustomPrompt: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "S", out.Summary)
	assert.True(t, out.IsArticle)
	assert.JSONEq(t, `{"highlights":["a"]}`, string(out.SummaryData))
}

func TestClient_SubscriptionAndBilling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/subscription/status", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "subscription": map[string]any{
			"status": "active", "current_period_end": "2026-11-01T00:00:00", "plan_id": "price_m",
		}})
	}))
	mux.HandleFunc("POST /api/subscription/refresh", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Subscription status updated", "subscription": map[string]any{"status": "past_due"}})
	}))
	mux.HandleFunc("POST /api/subscription/create-checkout-session", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "price_m", in["price_id"])
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "checkout_url": "https://checkout/abc", "session_id": "cs_1"})
	}))
	mux.HandleFunc("POST /api/subscription/cancel", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Subscription will be canceled at period end"})
	}))
	c := newTestClient(t, mux)
	ctx := context.Background()
	tok := issue(t, 1, time.Hour)

	sub, err := c.SubscriptionStatus(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	require.NotNil(t, sub.PlanID)
	assert.Equal(t, "price_m", *sub.PlanID)

	sub, msg, err := c.RefreshSubscription(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPastDue, sub.Status)
	assert.Equal(t, "Subscription status updated", msg)

	co, err := c.CreateCheckoutSession(ctx, tok, "price_m")
	require.NoError(t, err)
	assert.Equal(t, models.Checkout{URL: "https://checkout/abc", SessionID: "cs_1"}, co)

	msg, err = c.CancelSubscription(ctx, tok)
	require.NoError(t, err)
	assert.Contains(t, msg, "canceled")
}

func TestClient_PreferencesRoundTrip(t *testing.T) {
	stored := models.DefaultPreferences()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/preferences", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "preferences": stored})
	}))
	mux.HandleFunc("POST /api/preferences", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&stored))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "preferences": stored})
	}))
	c := newTestClient(t, mux)
	ctx := context.Background()
	tok := issue(t, 1, time.Hour)

	got, err := c.GetPreferences(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, models.StyleELI8, got.SummaryStyle)

	want := models.Preferences{SummaryStyle: models.StyleDetailed, AutoSummarizeEnabled: true, ReaderType: models.ReaderStudent, ReadingLevel: models.LevelAdvanced}
	saved, err := c.SavePreferences(ctx, tok, want)
	require.NoError(t, err)
	assert.Equal(t, want, saved)

	got, err = c.GetPreferences(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClient_FeedbackUsageAndProbes(t *testing.T) {
	var fb models.Feedback
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/feedback", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fb))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))
	mux.HandleFunc("GET /api/usage/stats", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "total_requests": 12, "month_requests": 4, "total_cost": 0.25})
	}))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "timestamp": "2026-10-14T10:00:00"})
	})
	mux.HandleFunc("GET /api/test", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "API is working"})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()
	tok := issue(t, 1, time.Hour)

	require.NoError(t, c.SubmitFeedback(ctx, tok, models.Feedback{Type: "bug", Message: "broken", UserID: 1}))
	assert.Equal(t, "bug", fb.Type)
	assert.Equal(t, int64(1), fb.UserID)

	stats, err := c.UsageStats(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, models.UsageStats{TotalRequests: 12, MonthRequests: 4, TotalCost: 0.25}, stats)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)

	h, err = c.Test(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "API is working", h.Message)
}

func TestClient_BaseURLResolvedPerCall(t *testing.T) {
	hits := map[string]int{}
	newSrv := func(name string) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits[name]++
			writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
		}))
		t.Cleanup(srv.Close)
		return srv
	}
	a, b := newSrv("a"), newSrv("b")

	current := a.URL
	c := NewClient(nil, func(context.Context) string { return current }, DefaultEndpoints(), logging.Nop{})

	_, err := c.Health(context.Background())
	require.NoError(t, err)
	current = b.URL
	_, err = c.Health(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 1, "b": 1}, hits)
}
