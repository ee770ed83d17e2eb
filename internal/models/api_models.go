// internal/models/api_models.go
package models

// ErrorResponse represents a standard error message format
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by the admin status endpoint
type StatusResponse struct {
	Status         string `json:"status"`
	BotUsername    string `json:"botUsername,omitempty"`
	ActiveSessions int    `json:"activeSessions"`
	UptimeSeconds  int64  `json:"uptimeSeconds"`
}
