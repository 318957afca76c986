package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

// Google's OAuth endpoints for limited-input devices.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:       "https://accounts.google.com/o/oauth2/auth",
	TokenURL:      "https://oauth2.googleapis.com/token",
	DeviceAuthURL: "https://oauth2.googleapis.com/device/code",
	AuthStyle:     oauth2.AuthStyleInParams,
}

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var defaultScopes = []string{"openid", "email", "profile"}

// PromptFunc shows the user where to approve the sign-in.
type PromptFunc func(ctx context.Context, verificationURL, userCode string)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	// OpenBrowser opens the verification page automatically.
	OpenBrowser bool
	Prompt      PromptFunc
	HTTPClient  *http.Client
}

// Google signs in with the OAuth 2.0 device authorization grant.
type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
	openBrowser bool
	prompt      PromptFunc
	httpClient  *http.Client
	logger      logging.Logger
}

func NewGoogle(cfg GoogleConfig, l logging.Logger) *Google {
	if cfg.Endpoint == (oauth2.Endpoint{}) {
		cfg.Endpoint = GoogleEndpoint
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = GoogleUserInfoURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	g := &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     cfg.Endpoint,
			Scopes:       defaultScopes,
		},
		userInfoURL: cfg.UserInfoURL,
		openBrowser: cfg.OpenBrowser,
		prompt:      cfg.Prompt,
		httpClient:  cfg.HTTPClient,
		logger:      l.With("module", "identity"),
	}
	if g.prompt == nil {
		g.prompt = g.logPrompt
	}
	return g
}

func (g *Google) logPrompt(ctx context.Context, url, code string) {
	g.logger.Info(ctx, "approve sign-in in a browser", "url", url, "code", code)
}

func (g *Google) SignIn(ctx context.Context) (Credentials, error) {
	if g.oauth.ClientID == "" {
		return Credentials{}, ErrNotConfigured
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	da, err := g.oauth.DeviceAuth(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("device authorization: %w", err)
	}

	url := da.VerificationURI
	if da.VerificationURIComplete != "" {
		url = da.VerificationURIComplete
	}
	g.prompt(ctx, url, da.UserCode)
	if g.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			g.logger.Warn(ctx, "could not open browser", "error", err)
		}
	}

	tok, err := g.oauth.DeviceAccessToken(ctx, da)
	if err != nil {
		return Credentials{}, fmt.Errorf("device token: %w", err)
	}

	profile, err := g.userInfo(ctx, tok)
	if err != nil {
		return Credentials{}, err
	}
	g.logger.Info(ctx, "provider sign-in complete", "email", profile.Email)
	return Credentials{AccessToken: tok.AccessToken, Profile: profile}, nil
}

func (g *Google) userInfo(ctx context.Context, tok *oauth2.Token) (models.ProviderUser, error) {
	var p models.ProviderUser

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return p, err
	}
	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return p, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return p, fmt.Errorf("fetch user info: status %d: %s", resp.StatusCode, b)
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, fmt.Errorf("decode user info: %w", err)
	}
	return p, nil
}
