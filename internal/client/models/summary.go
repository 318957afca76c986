package models

import "encoding/json"

// SummarizeRequest is a page to summarise. Exactly one of URL and HTML is
// expected; URL wins when both are set.
type SummarizeRequest struct {
	URL          string `json:"url,omitempty"`
	HTML         string `json:"html,omitempty"`
	CustomPrompt string `json:"customPrompt,omitempty"`
	Action       string `json:"action"`
}

// Summary is the backend's answer. SummaryData is passed through untouched.
type Summary struct {
	Summary     string          `json:"summary"`
	SummaryData json.RawMessage `json:"summary_data,omitempty"`
	IsArticle   bool            `json:"is_article"`
}

// Feedback is a user report forwarded to the backend.
type Feedback struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	PageURL   string `json:"page_url,omitempty"`
	PageTitle string `json:"page_title,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Health is the backend's health check answer.
type Health struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}
