// Package message defines the envelopes exchanged between UI surfaces and
// the worker's router. Every inbound message is {"action": ..., ...fields};
// each action has one request type and one response type.
package message

import (
	"slices"

	"github.com/samber/lo"
)

type Action string

const (
	ActionCheckAuth                 Action = "checkAuth"
	ActionGoogleAuth                Action = "googleAuth"
	ActionVerifyAuth                Action = "verifyAuth"
	ActionLogout                    Action = "logout"
	ActionGetSubscriptionStatus     Action = "getSubscriptionStatus"
	ActionRefreshSubscriptionStatus Action = "refreshSubscriptionStatus"
	ActionCreateCheckoutSession     Action = "createCheckoutSession"
	ActionCancelSubscription        Action = "cancelSubscription"
	ActionSummarizePage             Action = "summarizePage"
	ActionSavePreferences           Action = "savePreferences"
	ActionLoadPreferences           Action = "loadPreferences"
	ActionSendFeedback              Action = "sendFeedback"
	ActionGetUsageStats             Action = "getUsageStats"
	ActionTestConnection            Action = "testConnection"
	ActionToggleExtension           Action = "toggleExtension"
	ActionGetExtensionStatus        Action = "getExtensionStatus"
	ActionGetOnboardingStatus       Action = "getOnboardingStatus"
	ActionSetOnboardingStep         Action = "setOnboardingStep"
	ActionCompleteOnboarding        Action = "completeOnboarding"
	ActionWake                      Action = "wake"
)

// requests maps every known action to a constructor of its request type.
var requests = map[Action]func() Request{
	ActionCheckAuth:                 func() Request { return &CheckAuth{} },
	ActionGoogleAuth:                func() Request { return &GoogleAuth{} },
	ActionVerifyAuth:                func() Request { return &VerifyAuth{} },
	ActionLogout:                    func() Request { return &Logout{} },
	ActionGetSubscriptionStatus:     func() Request { return &GetSubscriptionStatus{} },
	ActionRefreshSubscriptionStatus: func() Request { return &RefreshSubscriptionStatus{} },
	ActionCreateCheckoutSession:     func() Request { return &CreateCheckoutSession{} },
	ActionCancelSubscription:        func() Request { return &CancelSubscription{} },
	ActionSummarizePage:             func() Request { return &SummarizePage{} },
	ActionSavePreferences:           func() Request { return &SavePreferences{} },
	ActionLoadPreferences:           func() Request { return &LoadPreferences{} },
	ActionSendFeedback:              func() Request { return &SendFeedback{} },
	ActionGetUsageStats:             func() Request { return &GetUsageStats{} },
	ActionTestConnection:            func() Request { return &TestConnection{} },
	ActionToggleExtension:           func() Request { return &ToggleExtension{} },
	ActionGetExtensionStatus:        func() Request { return &GetExtensionStatus{} },
	ActionGetOnboardingStatus:       func() Request { return &GetOnboardingStatus{} },
	ActionSetOnboardingStep:         func() Request { return &SetOnboardingStep{} },
	ActionCompleteOnboarding:        func() Request { return &CompleteOnboarding{} },
	ActionWake:                      func() Request { return &Wake{} },
}

// Known reports whether a is a recognised action.
func Known(a Action) bool {
	_, ok := requests[a]
	return ok
}

// Actions lists the recognised actions in lexical order.
func Actions() []Action {
	out := lo.Keys(requests)
	slices.Sort(out)
	return out
}
