package message

import (
	"encoding/json"

	"github.com/dmitrijs2005/trace/internal/client/models"
)

// Response is one outbound message variant.
type Response interface {
	response()
}

// Sender identifies where a message came from. Tab fields are set for
// messages from content scripts.
type Sender struct {
	Surface  string
	TabID    int
	TabURL   string
	TabTitle string
}

// Failure is the answer of every handler path that did not succeed.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func Fail(msg string) Failure {
	return Failure{Error: msg}
}

type AuthStatus struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

type AuthResult struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

type VerifyResult struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

// Ack is a bare success, optionally with the backend's message.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type SubscriptionResult struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message,omitempty"`
	Subscription models.Subscription `json:"subscription"`
}

type CheckoutResult struct {
	Success     bool   `json:"success"`
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id,omitempty"`
}

type SummaryResult struct {
	Success     bool            `json:"success"`
	Summary     string          `json:"summary"`
	SummaryData json.RawMessage `json:"summary_data,omitempty"`
	IsArticle   bool            `json:"is_article"`
}

// PreferencesResult carries Cached when the backend was unreachable and the
// preferences come from local storage.
type PreferencesResult struct {
	Success     bool               `json:"success"`
	Preferences models.Preferences `json:"preferences"`
	Cached      bool               `json:"cached,omitempty"`
}

type UsageStatsResult struct {
	Success bool `json:"success"`
	models.UsageStats
}

type ConnectionResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ExtensionStatus struct {
	Enabled bool `json:"enabled"`
}

type OnboardingStatus struct {
	Success   bool `json:"success"`
	Completed bool `json:"completed"`
	Step      int  `json:"step"`
}

type WakeResult struct {
	Success       bool `json:"success"`
	Authenticated bool `json:"authenticated"`
}

func (Failure) response()            {}
func (AuthStatus) response()         {}
func (AuthResult) response()         {}
func (VerifyResult) response()       {}
func (Ack) response()                {}
func (SubscriptionResult) response() {}
func (CheckoutResult) response()     {}
func (SummaryResult) response()      {}
func (PreferencesResult) response()  {}
func (UsageStatsResult) response()   {}
func (ConnectionResult) response()   {}
func (ExtensionStatus) response()    {}
func (OnboardingStatus) response()   {}
func (WakeResult) response()         {}
