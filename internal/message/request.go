package message

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/common"
)

// Request is one inbound message variant.
type Request interface {
	Action() Action
}

type (
	CheckAuth                 struct{}
	GoogleAuth                struct{}
	VerifyAuth                struct{}
	Logout                    struct{}
	GetSubscriptionStatus     struct{}
	RefreshSubscriptionStatus struct{}
	CancelSubscription        struct{}
	LoadPreferences           struct{}
	GetUsageStats             struct{}
	TestConnection            struct{}
	GetExtensionStatus        struct{}
	GetOnboardingStatus       struct{}
	CompleteOnboarding        struct{}
	Wake                      struct{}
)

type CreateCheckoutSession struct {
	PriceID string `json:"priceId"`
}

// SummarizePage names the tab to summarise. When URL and HTML are both
// empty the router resolves the URL from the tab registry.
type SummarizePage struct {
	TabID        int    `json:"tabId"`
	CustomPrompt string `json:"customPrompt,omitempty"`
	URL          string `json:"url,omitempty"`
	HTML         string `json:"html,omitempty"`
}

type SavePreferences struct {
	Preferences *models.Preferences `json:"preferences"`
}

type SendFeedback struct {
	Feedback *models.Feedback `json:"feedback"`
}

type ToggleExtension struct {
	Enabled bool `json:"enabled"`
}

type SetOnboardingStep struct {
	Step int `json:"step"`
}

func (CheckAuth) Action() Action                 { return ActionCheckAuth }
func (GoogleAuth) Action() Action                { return ActionGoogleAuth }
func (VerifyAuth) Action() Action                { return ActionVerifyAuth }
func (Logout) Action() Action                    { return ActionLogout }
func (GetSubscriptionStatus) Action() Action     { return ActionGetSubscriptionStatus }
func (RefreshSubscriptionStatus) Action() Action { return ActionRefreshSubscriptionStatus }
func (CreateCheckoutSession) Action() Action     { return ActionCreateCheckoutSession }
func (CancelSubscription) Action() Action        { return ActionCancelSubscription }
func (SummarizePage) Action() Action             { return ActionSummarizePage }
func (SavePreferences) Action() Action           { return ActionSavePreferences }
func (LoadPreferences) Action() Action           { return ActionLoadPreferences }
func (SendFeedback) Action() Action              { return ActionSendFeedback }
func (GetUsageStats) Action() Action             { return ActionGetUsageStats }
func (TestConnection) Action() Action            { return ActionTestConnection }
func (ToggleExtension) Action() Action           { return ActionToggleExtension }
func (GetExtensionStatus) Action() Action        { return ActionGetExtensionStatus }
func (GetOnboardingStatus) Action() Action       { return ActionGetOnboardingStatus }
func (SetOnboardingStep) Action() Action         { return ActionSetOnboardingStep }
func (CompleteOnboarding) Action() Action        { return ActionCompleteOnboarding }
func (Wake) Action() Action                      { return ActionWake }

// Decode reads an envelope. An envelope without a recognised action fails
// with common.ErrUnknownAction; a recognised action with malformed fields
// fails with common.ErrValidation.
func Decode(raw []byte) (Request, error) {
	var head struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", common.ErrUnknownAction, err)
	}
	newReq, ok := requests[head.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownAction, head.Action)
	}
	req := newReq()
	if err := json.Unmarshal(raw, req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrValidation, head.Action, err)
	}
	return req, nil
}

// Encode builds the envelope for req, the inverse of Decode.
func Encode(req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	a, _ := json.Marshal(req.Action())
	fields["action"] = a
	return json.Marshal(fields)
}
