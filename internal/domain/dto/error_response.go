package dto

import "time"

// ErrorResponse is the JSON body of every API error.
//
// Fields:
//   - Message: short, client-facing description.
//   - ErrorDetails: underlying error text, when there is one.
//   - Timestamp: server time the error was produced.
type ErrorResponse struct {
	Message      string    `json:"message" example:"pair is required"`
	ErrorDetails string    `json:"error_details,omitempty" example:"invalid pair"`
	Timestamp    time.Time `json:"timestamp" example:"2025-09-17T14:00:00Z"`
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse stamped with the current UTC time.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
