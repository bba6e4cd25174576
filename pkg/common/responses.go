// Package common holds HTTP helpers shared by the REST handlers.
package common

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// MaxJSONBody caps request bodies of the JSON endpoints
const MaxJSONBody = 1 << 20

// RespondJSON sends data as the bare JSON body
func RespondJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON parses a JSON request body into v. Unknown fields are allowed so
// that full records can be posted back unchanged.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return TooLarge(tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("Request body is empty")
		default:
			return pkgerrors.NewValidationError("Invalid request body").WithCause(err)
		}
	}
	return nil
}

// TooLarge is the 413 returned for oversized bodies
func TooLarge(limit int64) *pkgerrors.AppError {
	err := pkgerrors.NewValidationError("Request body too large").
		WithDetails(map[string]interface{}{"limit": limit})
	err.HTTPStatus = http.StatusRequestEntityTooLarge
	return err
}

// ClientIP returns the caller's address without the port
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
