package shared

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// The session cookie carries the access token for browser clients. Logout
// overwrites it with LoggedOutCookieValue.
const (
	TokenCookieName      = "jwt"
	LoggedOutCookieValue = "loggedout"
)

// TokenFromRequest returns the bearer token of the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(r *http.Request) (string, bool) {
	if scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " "); found && scheme == "Bearer" {
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" && c.Value != LoggedOutCookieValue {
		return c.Value, true
	}
	return "", false
}

// ErrMalformedBody is returned by DecodeJSON for bodies that are not valid JSON
// for the target type.
var ErrMalformedBody = errors.New("malformed request body")

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// DecodeJSON decodes the request body into v. An empty body decodes as {}
// so that required-field validation reports the missing fields. A body cut
// off by http.MaxBytesReader yields the *http.MaxBytesError unwrapped.
func DecodeJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: reading body: %w", ErrMalformedBody, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return nil
}

// ValidateRequest validates v with its `validate` struct tags. Types
// implementing Validate() error validate themselves.
func ValidateRequest(v any) error {
	if self, ok := v.(interface{ Validate() error }); ok {
		return self.Validate()
	}
	return validate.Struct(v)
}
