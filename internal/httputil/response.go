package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/redmonkez12/bookings-api/internal/apperror"
)

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// DataResponse is the success envelope for endpoints returning a resource.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondData sends {success:true, data:<data>}.
func RespondData(w http.ResponseWriter, data any, statusCode int) {
	RespondJSON(w, DataResponse{Success: true, Data: data}, statusCode)
}

// RespondError sends a JSON error response with the given message and status code.
func RespondError(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message}, statusCode)
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

// RespondAppError maps err through the apperror taxonomy. Unclassified errors
// become a 500 with fallback as the message.
func RespondAppError(w http.ResponseWriter, err error, fallback string) {
	RespondErrorWithCode(w,
		apperror.PublicMessage(err, fallback),
		CodeForKind(apperror.KindOf(err)),
		apperror.HTTPStatus(err),
	)
}
