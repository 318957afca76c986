// Package common contains shared constants and sentinel errors used across
// the Trace worker components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// outbound backend requests.
const AuthorizationHeaderName = "Authorization"

// Durable storage keys. The values match the keys used by the browser
// extension so an exported store stays readable by both.
const (
	KeyExtensionEnabled      = "extensionEnabled"
	KeyAuthToken             = "authToken"
	KeyCurrentUser           = "currentUser"
	KeySummaryStyle          = "summaryStyle"
	KeyAutoSummarizeEnabled  = "autoSummarizeEnabled"
	KeyNotificationsEnabled  = "notificationsEnabled"
	KeyReaderType            = "readerType"
	KeyReadingLevel          = "readingLevel"
	KeyOnboardingCompleted   = "onboardingCompleted"
	KeyOnboardingStep        = "onboardingStep"
	KeyBackendURL            = "backendUrl"
	KeyLastSubscriptionCheck = "lastSubscriptionCheck"
)

// SensitiveKeys lists storage keys whose values are sealed at rest when a
// storage secret is configured.
var SensitiveKeys = []string{KeyAuthToken, KeyCurrentUser}
