package handler

import "fmt"

const (
	MessageMissingFields    = "missing required fields"
	MessageMalformedBody    = "malformed body"
	MessageMailFailed       = "error sending mail"
	MessageMethodNotAllowed = "method not allowed"
)

// ErrorHandler is the JSON body of every non-push error response.
type ErrorHandler struct {
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *ErrorHandler) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

func GetRequestError() error {
	return &ErrorHandler{
		Message: MessageMissingFields,
	}
}

func GetMalformedBodyError() error {
	return &ErrorHandler{
		Message: MessageMalformedBody,
	}
}

func GetInternalError(message string, err error) error {
	return &ErrorHandler{
		Message: message,
		Details: err.Error(),
	}
}

// PushErrorResponse is returned when a push request fails before any
// recipient was attempted.
type PushErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func GetPushError(err error) PushErrorResponse {
	return PushErrorResponse{
		Success: false,
		Error:   err.Error(),
	}
}
