package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeValidation             = "validation_error"
	ErrCodeNotFound               = "not_found"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeTokenUsed              = "token_used"
	ErrCodeInternal               = "internal_server_error"
	ErrCodeExternalServiceFailure = "external_service_failure"
)

// jsStringEscaper neutralizes characters that would break out of a
// single-quoted JS string literal in the alert pages.
var jsStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", ``,
	"<", `\u003c`,
	">", `\u003e`,
)

// bodyMessage builds the user-visible text. Server-side failures carry
// the underlying collaborator error in the body, not just the logs.
func bodyMessage(status int, message string, devErrs ...error) string {
	if status >= http.StatusInternalServerError && len(devErrs) > 0 && devErrs[0] != nil {
		return message + ": " + devErrs[0].Error()
	}
	return message
}

// RespondPlainText writes a text/plain body. Failures (status >= 400) are
// logged together with the optional dev error.
func RespondPlainText(w http.ResponseWriter, status int, message string, devErrs ...error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, bodyMessage(status, message, devErrs...))

	logResponse(status, message, devErrs...)
}

// RespondAlertHTML writes an HTML document whose body is an
// alert-and-close script, for endpoints reached by clicking an email
// link rather than by a programmatic client.
func RespondAlertHTML(w http.ResponseWriter, status int, message string, devErrs ...error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<script>alert('%s'); window.close();</script>",
		jsStringEscaper.Replace(bodyMessage(status, message, devErrs...)))

	logResponse(status, message, devErrs...)
}

// ErrorResponse is the JSON error body used by machine-facing endpoints.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondErrorWithCode builds a JSON error response with a standard
// code and message.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:    errorCode,
		Message: publicMessage,
	})

	logResponse(status, publicMessage, devErrs...)
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func logResponse(status int, publicMessage string, devErrs ...error) {
	if status < 400 {
		return
	}
	if len(devErrs) > 0 && devErrs[0] != nil {
		Logger.WithFields(logrus.Fields{
			"status": status,
			"error":  devErrs[0].Error(),
		}).Error(publicMessage)
	} else {
		Logger.WithFields(logrus.Fields{
			"status": status,
		}).Error(publicMessage)
	}
}
