package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

// fakeBackend speaks the backend's JSON contract and issues real HS256
// tokens.
type fakeBackend struct {
	t      *testing.T
	secret []byte
	srv    *httptest.Server

	mu sync.Mutex
	// reject401 makes the next n authenticated requests fail with 401.
	reject401 int
	// down makes every request answer with a proxy error page.
	down         bool
	hits         map[string]int
	prefs        models.Preferences
	subscription models.Subscription
	feedback     []models.Feedback
	summary      map[string]any
	lastSummary  models.SummarizeRequest
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{
		t:            t,
		secret:       []byte("test-secret"),
		hits:         map[string]int{},
		prefs:        models.DefaultPreferences(),
		subscription: models.Subscription{Status: models.SubscriptionInactive},
		summary:      map[string]any{"success": true, "summary": "S", "is_article": true},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/google", b.authenticate)
	mux.HandleFunc("GET /api/auth/verify", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		b.json(w, 200, map[string]any{"success": true, "user": b.user(uid)})
	}))
	mux.HandleFunc("GET /api/subscription/status", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		b.json(w, 200, map[string]any{"success": true, "subscription": b.subscription})
	}))
	mux.HandleFunc("POST /api/subscription/refresh", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		b.json(w, 200, map[string]any{"success": true, "message": "Subscription status updated", "subscription": b.subscription})
	}))
	mux.HandleFunc("POST /api/subscription/create-checkout-session", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		var in struct {
			PriceID string `json:"price_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.json(w, 200, map[string]any{"success": true, "checkout_url": "https://checkout.example/" + in.PriceID, "session_id": "cs_1"})
	}))
	mux.HandleFunc("POST /api/subscription/cancel", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		b.json(w, 200, map[string]any{"success": true, "message": "Subscription canceled"})
	}))
	mux.HandleFunc("POST /api/summarize", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		_ = json.NewDecoder(r.Body).Decode(&b.lastSummary)
		b.json(w, 200, b.summary)
	}))
	mux.HandleFunc("GET /api/preferences", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		b.json(w, 200, map[string]any{"success": true, "preferences": b.stored()})
	}))
	mux.HandleFunc("POST /api/preferences", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		var p models.Preferences
		_ = json.NewDecoder(r.Body).Decode(&p)
		b.prefs = p
		b.json(w, 200, map[string]any{"success": true, "message": "Preferences saved successfully", "preferences": b.stored()})
	}))
	mux.HandleFunc("POST /api/feedback", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		var fb models.Feedback
		_ = json.NewDecoder(r.Body).Decode(&fb)
		b.feedback = append(b.feedback, fb)
		b.json(w, 200, map[string]any{"success": true})
	}))
	mux.HandleFunc("GET /api/usage/stats", b.authed(func(w http.ResponseWriter, r *http.Request, uid int64) {
		b.json(w, 200, map[string]any{"success": true, "total_requests": 9, "month_requests": 2, "total_cost": 0.04})
	}))
	mux.HandleFunc("GET /api/test", func(w http.ResponseWriter, r *http.Request) {
		b.json(w, 200, map[string]any{"status": "ok", "message": "API is working"})
	})

	b.srv = httptest.NewServer(b.gate(mux))
	t.Cleanup(b.srv.Close)
	return b
}

// stored is what the backend keeps of the preferences: the reader profile
// is never persisted server side.
func (b *fakeBackend) stored() map[string]any {
	return map[string]any{
		"summary_style":          b.prefs.SummaryStyle,
		"auto_summarize_enabled": b.prefs.AutoSummarizeEnabled,
		"notifications_enabled":  b.prefs.NotificationsEnabled,
	}
}

// gate counts hits and simulates an outage.
func (b *fakeBackend) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		down := b.down
		b.mu.Unlock()
		if down {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *fakeBackend) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) issue(uid int64) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uid,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString(b.secret)
	if err != nil {
		b.t.Fatalf("sign token: %v", err)
	}
	return s
}

func (b *fakeBackend) user(uid int64) models.User {
	return models.User{ID: uid, Email: "ann@example.com", Name: "Ann", SubscriptionStatus: b.subscription.Status}
}

func (b *fakeBackend) authenticate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AccessToken string              `json:"access_token"`
		UserInfo    models.ProviderUser `json:"user_info"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.AccessToken == "" {
		b.json(w, 400, map[string]any{"error": "Access token required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.json(w, 200, map[string]any{"success": true, "token": b.issue(42), "user": b.user(42)})
}

func (b *fakeBackend) authed(h func(w http.ResponseWriter, r *http.Request, uid int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.reject401 > 0 {
			b.reject401--
			b.json(w, 401, map[string]any{"error": "Token has expired"})
			return
		}
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			b.json(w, 401, map[string]any{"error": "Authorization token required"})
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return b.secret, nil })
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			b.json(w, 401, map[string]any{"error": "Token has expired"})
			return
		case err != nil:
			b.json(w, 401, map[string]any{"error": "Invalid token"})
			return
		}
		uid, _ := claims["user_id"].(float64)
		h(w, r, int64(uid))
	}
}

func (b *fakeBackend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *fakeBackend) with(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}
