// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// SummarizeRequest represents the request body for a summarization.
type SummarizeRequest struct {
	Content   string `json:"content"`
	MaxLength int    `json:"max_length,omitempty"`
	MinLength int    `json:"min_length,omitempty"`
}

// SummarizeResponse represents a successful summarization.
type SummarizeResponse struct {
	UserID  string `json:"user_id"`
	Plan    string `json:"plan"`
	Summary string `json:"summary"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
