// Package respond renders the canonical JSON envelopes used by every
// endpoint: {"success":true,"data":…} on success and
// {"success":false,"error":…,"message":…,"code":…} on failure.
package respond

import "github.com/labstack/echo/v4"

// Machine-readable failure codes. Clients branch on these, never on the
// human-readable messages.
const (
	CodeMissingToken            = "MISSING_TOKEN"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeWrongTokenType          = "WRONG_TOKEN_TYPE"
	CodeTokenRevoked            = "TOKEN_REVOKED"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeUserDisabled            = "USER_DISABLED"
	CodeNotAuthenticated        = "NOT_AUTHENTICATED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeAuthError               = "AUTH_ERROR"
)

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Failure is the error envelope. Code is omitted for failures that have no
// machine-readable class (e.g. payload validation).
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Data writes a success envelope wrapping the given payload.
func Data(c echo.Context, status int, data any) error {
	return c.JSON(status, successEnvelope{Success: true, Data: data})
}

// Message writes a success envelope carrying only a message.
func Message(c echo.Context, status int, msg string) error {
	return c.JSON(status, successEnvelope{Success: true, Message: msg})
}

// Error writes a failure envelope.
func Error(c echo.Context, status int, errText, message, code string) error {
	return c.JSON(status, Failure{Error: errText, Message: message, Code: code})
}
