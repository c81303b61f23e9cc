// Package api holds wire types shared between the user actor and the
// HTTP layer. The login reply lives here rather than in handlers so the
// actor can build it without importing the handler package.
package api

// LoginResponse is the reply to a credential check. On success UserID
// and Token are set; on failure Error carries a safe message (the API
// never distinguishes bad email from bad password).
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
	UserID  string `json:"userId,omitempty"`
}
