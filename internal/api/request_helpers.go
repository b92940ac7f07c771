package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
)

// getPathUUID extracts a UUID from the URL path parameters. A value that
// does not parse is reported as "Invalid <param>: <value>.".
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, &query.InvalidValueError{Field: paramName, Value: raw}
	}
	return id, nil
}

// getOptionalPathUUID is getPathUUID for parameters that only exist on
// nested routes. ok is false when the parameter is absent.
func getOptionalPathUUID(r *http.Request, paramName string) (id uuid.UUID, ok bool, err error) {
	if chi.URLParam(r, paramName) == "" {
		return uuid.Nil, false, nil
	}
	id, err = getPathUUID(r, paramName)
	return id, err == nil, err
}

// getPathFloat parses a positive number from the URL path.
func getPathFloat(r *http.Request, paramName string) (float64, error) {
	raw := chi.URLParam(r, paramName)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, &query.InvalidValueError{Field: paramName, Value: raw}
	}
	return v, nil
}

// getPathInt parses an integer from the URL path.
func getPathInt(r *http.Request, paramName string) (int, error) {
	raw := chi.URLParam(r, paramName)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &query.InvalidValueError{Field: paramName, Value: raw}
	}
	return v, nil
}

// getPathUnit parses the distance unit path parameter.
func getPathUnit(r *http.Request, paramName string) (domain.DistanceUnit, error) {
	raw := chi.URLParam(r, paramName)
	unit, err := domain.ParseDistanceUnit(raw)
	if err != nil {
		return "", &query.InvalidValueError{Field: paramName, Value: raw}
	}
	return unit, nil
}

// identity returns the authenticated user placed in the context by the
// auth middleware.
func identity(r *http.Request) (*domain.User, error) {
	user, ok := shared.IdentityFrom(r.Context())
	if !ok {
		return nil, auth.ErrMissingToken
	}
	return user, nil
}

// expandParam reads the comma separated expand query parameter.
func expandParam(r *http.Request) []string {
	raw := r.URL.Query().Get("expand")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
