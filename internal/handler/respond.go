package handler

import (
	"encoding/json"
	"net/http"

	"github.com/playtestbot/roster/internal/domain"
)

const maxBodyBytes = 1 << 20

// genericFailure is shown to callers instead of server-side error detail.
const genericFailure = "something went wrong on our side, please try again later"

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes a JSON error response, detecting domain.AppError for status codes.
// Server-side failures never expose their message.
func RespondError(w http.ResponseWriter, err error) {
	if appErr, ok := domain.AsAppError(err); ok && appErr.Status < 500 {
		RespondJSON(w, appErr.Status, map[string]string{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
		return
	}
	status, code := http.StatusInternalServerError, domain.CodeInternal
	if appErr, ok := domain.AsAppError(err); ok {
		status, code = appErr.Status, appErr.Code
	}
	RespondJSON(w, status, map[string]string{
		"code":    code,
		"message": genericFailure,
	})
}

// DecodeJSON reads and decodes a JSON request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(dst)
}
