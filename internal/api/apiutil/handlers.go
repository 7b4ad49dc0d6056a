// internal/api/apiutil/handlers.go
package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/api/identity"
	"github.com/pistareserva/courtbook/internal/db"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// ErrorBody is the JSON error shape returned by every handler.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	_ = WriteJSON(w, status, ErrorBody{Code: code, Message: message})
}

// RequireUser pulls the authenticated user from the context, writing a 401
// and returning false when the request is anonymous.
func RequireUser(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	user, err := identity.RequireUser(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Warn().Msg("Request rejected: unauthenticated")
		WriteError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return nil, false
	}
	return user, true
}

// RequireStaff pulls the authenticated staff user from the context, writing
// a 401/403 and returning false otherwise.
func RequireStaff(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	user, err := identity.RequireStaff(r.Context())
	if err != nil {
		logger := log.Ctx(r.Context())
		if errors.Is(err, identity.ErrForbidden) {
			logger.Warn().Msg("Request rejected: staff only")
			WriteError(w, http.StatusForbidden, "forbidden", "Staff access required")
		} else {
			logger.Warn().Msg("Request rejected: unauthenticated")
			WriteError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		}
		return nil, false
	}
	return user, true
}
