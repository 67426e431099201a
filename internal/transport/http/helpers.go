package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"halloween-trivia/internal/app"
	"halloween-trivia/internal/domain"
)

const maxBodyBytes = 16 << 10

var errBadRequest = errors.New("malformed request body")

type errorBody struct {
	Error string `json:"error"`
}

// actionResponse is what every play or admin action answers with.
type actionResponse struct {
	Outcome string   `json:"outcome,omitempty"`
	Error   string   `json:"error,omitempty"`
	View    app.View `json:"view"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON reads a small JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errBadRequest
	}
	return nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrEmptyAnswer),
		errors.Is(err, domain.ErrNicknameTooShort),
		errors.Is(err, domain.ErrInvalidAvatar),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrGameDisabled),
		errors.Is(err, domain.ErrAdminLocked):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientQuestions),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNoActiveSession):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSettingsUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides store details behind a generic message.
func publicMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: publicMessage(err)})
}
