package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func fakeGoogle(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /device/code", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dev-1",
			"user_code":        "ABCD-EFGH",
			"verification_url": "https://www.google.com/device",
			"expires_in":       60,
			"interval":         1,
		})
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"authorization_pending"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"g-access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer g-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1093","email":"ann@example.com","verified_email":true,"name":"Ann Lee","given_name":"Ann","picture":"https://p/a.png"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestGoogle_SignIn(t *testing.T) {
	srv, polls := fakeGoogle(t)

	var shownURL, shownCode string
	g := NewGoogle(GoogleConfig{
		ClientID: "client-1",
		Endpoint: oauth2.Endpoint{
			TokenURL:      srv.URL + "/token",
			DeviceAuthURL: srv.URL + "/device/code",
			AuthStyle:     oauth2.AuthStyleInParams,
		},
		UserInfoURL: srv.URL + "/userinfo",
		Prompt: func(_ context.Context, url, code string) {
			shownURL, shownCode = url, code
		},
		HTTPClient: srv.Client(),
	}, logging.Nop{})

	creds, err := g.SignIn(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://www.google.com/device", shownURL)
	assert.Equal(t, "ABCD-EFGH", shownCode)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
	assert.Equal(t, "g-access", creds.AccessToken)
	assert.Equal(t, "1093", creds.Profile.ID)
	assert.Equal(t, "ann@example.com", creds.Profile.Email)
	assert.True(t, creds.Profile.VerifiedEmail)
	assert.Equal(t, "Ann", creds.Profile.GivenName)
}

func TestGoogle_NotConfigured(t *testing.T) {
	_, err := NewGoogle(GoogleConfig{}, logging.Nop{}).SignIn(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestGoogle_UserInfoRejected(t *testing.T) {
	srv, _ := fakeGoogle(t)
	g := NewGoogle(GoogleConfig{
		ClientID: "client-1",
		Endpoint: oauth2.Endpoint{
			TokenURL:      srv.URL + "/token",
			DeviceAuthURL: srv.URL + "/device/code",
			AuthStyle:     oauth2.AuthStyleInParams,
		},
		UserInfoURL: srv.URL + "/missing",
		Prompt:      func(context.Context, string, string) {},
		HTTPClient:  srv.Client(),
	}, logging.Nop{})

	_, err := g.SignIn(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user info")
}
