package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
)

// maxBodyBytes caps request body size. Simulation payloads are small;
// anything larger is a client mistake.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as a JSON error envelope with the status from
// [StatusCode].
func Error(w http.ResponseWriter, err error) {
	JSON(w, StatusCode(err), ErrorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

// StatusCode maps an error to an HTTP status by its structured code.
// Errors without a code are treated as internal.
func StatusCode(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidScenario,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidStrategy,
		errors.ErrCodeInvalidTransition,
		errors.ErrCodeInvalidSnapshot,
		errors.ErrCodeInvalidPath,
		errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound,
		errors.ErrCodeSimulationNotFound,
		errors.ErrCodeProcessNotFound,
		errors.ErrCodeResourceNotFound,
		errors.ErrCodeRunNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict,
		errors.ErrCodeDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads the request body as JSON into v. The body is capped at
// 1 MiB. Unknown fields are tolerated so clients can send supersets of
// a payload.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
