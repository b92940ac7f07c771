package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// ErrTooManyRequests is reported when the rate limiter rejects a request.
var ErrTooManyRequests = errors.New("too many requests")

// messageUnexpected replaces the message of a programming or unknown error
// in production.
const messageUnexpected = "Something went very wrong!"

// RouteNotFoundError is reported for a path no route matches.
type RouteNotFoundError struct {
	Path string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("Can't find %s on this server!", e.Path)
}

// HandleAPIError is the single exit for every failed request. It maps err
// to a status and a client-safe message, logs the redacted error and
// writes the envelope for the request's error mode.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	if status >= http.StatusInternalServerError && !isOperational(err) {
		if shared.VerboseErrors(r.Context()) {
			message = err.Error()
		} else {
			message = messageUnexpected
		}
	}

	var opts []shared.ResponseOption
	switch {
	case errors.Is(err, service.ErrForbidden), isAuthError(err):
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// HandleRateLimited reports a rate limiter rejection.
func HandleRateLimited(w http.ResponseWriter, r *http.Request) {
	HandleAPIError(w, r, ErrTooManyRequests)
}

// HandleRouteNotFound reports an unmatched path.
func HandleRouteNotFound(w http.ResponseWriter, r *http.Request) {
	HandleAPIError(w, r, &RouteNotFoundError{Path: r.URL.Path})
}

// HandleMethodNotAllowed reports a known path requested with the wrong method.
func HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusMethodNotAllowed,
		fmt.Sprintf("Method %s is not allowed on %s.", r.Method, r.URL.Path))
}

// MapErrorToStatusCode maps internal errors to HTTP status codes. Unknown
// errors map to 500.
func MapErrorToStatusCode(err error) int {
	var (
		routeErr     *RouteNotFoundError
		tooLarge     *http.MaxBytesError
		validateErrs validator.ValidationErrors
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError

	// Authentication errors
	case isAuthError(err),
		errors.Is(err, service.ErrIncorrectCredentials),
		errors.Is(err, service.ErrWrongCurrentPassword):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Not found errors
	case errors.As(err, &routeErr),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrNoUserWithEmail):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests

	// Bad request errors
	case errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrResetTokenInvalid),
		errors.Is(err, service.ErrPasswordRoute),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, store.ErrReferenceNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidLocation),
		errors.Is(err, query.ErrInvalidQuery),
		errors.Is(err, shared.ErrMalformedBody),
		errors.As(err, &validateErrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the client-facing message for err. It never
// includes wrapped causes, which may carry driver or query detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return messageUnexpected
	}

	var (
		routeErr     *RouteNotFoundError
		invalidValue *query.InvalidValueError
		fieldErr     *domain.ValidationError
		tooLarge     *http.MaxBytesError
		validateErrs validator.ValidationErrors
	)

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrMissingToken):
		return "You are not logged in! Please log in to get access."
	case errors.Is(err, auth.ErrExpiredToken):
		return "Your token has expired! Please log in again."
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token. Please log in again!"
	case errors.Is(err, service.ErrUserGone):
		return "The user belonging to this token no longer exists."
	case errors.Is(err, service.ErrPasswordChanged):
		return "User recently changed password! Please log in again."
	case errors.Is(err, service.ErrIncorrectCredentials):
		return "Incorrect email or password"
	case errors.Is(err, service.ErrWrongCurrentPassword):
		return "Your current password is wrong."
	case errors.Is(err, service.ErrMissingCredentials):
		return "Please provide email and password!"

	// Authorization errors
	case errors.Is(err, service.ErrForbidden):
		return "You do not have permission to perform this action"

	// Password reset lifecycle
	case errors.Is(err, service.ErrResetTokenInvalid):
		return "Token is invalid or has expired"
	case errors.Is(err, service.ErrNoUserWithEmail):
		return "There is no user with email address."
	case errors.Is(err, service.ErrEmailDelivery):
		return "There was an error sending the email. Try again later!"
	case errors.Is(err, service.ErrPasswordRoute):
		return "This route is not for password updates. Please use /updateMyPassword."
	case errors.Is(err, service.ErrNotImplemented):
		return "This route is not yet defined!"

	// Not found errors
	case errors.As(err, &routeErr):
		return routeErr.Error()
	case errors.Is(err, store.ErrNotFound):
		return "No document found with that ID"

	// Conflict errors
	case errors.Is(err, store.ErrReviewExists):
		return "You have already reviewed this tour."
	case errors.Is(err, store.ErrEmailExists):
		return "Duplicate field value: email. Please use another value!"
	case errors.Is(err, store.ErrTourNameExists):
		return "Duplicate field value: name. Please use another value!"
	case errors.Is(err, store.ErrDuplicate):
		return "Duplicate field value. Please use another value!"

	// Bad request errors
	case errors.As(err, &invalidValue):
		return invalidValue.Error()
	case errors.As(err, &validateErrs):
		return SanitizeValidationError(validateErrs)
	case errors.Is(err, domain.ErrInvalidLocation) && !errors.As(err, &fieldErr):
		return "Please provide latitude and longitude in the format lat,lng."
	case errors.As(err, &fieldErr):
		return "Invalid input data. " + sentence(fieldErr.Message)
	case errors.Is(err, store.ErrReferenceNotFound):
		return "Invalid input data. Referenced document does not exist."
	case errors.Is(err, store.ErrInvalidEntity), errors.Is(err, domain.ErrValidation):
		return "Invalid input data."
	case errors.Is(err, query.ErrInvalidQuery):
		return "Invalid query parameter."
	case errors.As(err, &tooLarge):
		return fmt.Sprintf("Request body must not exceed %d bytes.", tooLarge.Limit)
	case errors.Is(err, shared.ErrMalformedBody):
		return "Invalid request body."
	case errors.Is(err, ErrTooManyRequests):
		return "Too many requests from this IP, please try again in an hour!"

	default:
		return messageUnexpected
	}
}

// SanitizeValidationError renders validator errors as
// "Invalid input data. <field>: <reason>." joined per field. Struct and
// namespace names never reach the client.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Invalid input data."
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), getValidationTagMessage(fe)))
	}
	return "Invalid input data. " + strings.Join(parts, ". ") + "."
}

// getValidationTagMessage maps validation tags to user-friendly reasons.
func getValidationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "please provide a valid email"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must have at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "eqfield":
		return "passwords are not the same"
	default:
		return "is invalid"
	}
}

func isAuthError(err error) bool {
	return errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrTokenNotYetValid) ||
		errors.Is(err, service.ErrUserGone) ||
		errors.Is(err, service.ErrPasswordChanged)
}

// isOperational reports whether a 5xx error carries a message that is safe
// to show in production.
func isOperational(err error) bool {
	return errors.Is(err, service.ErrEmailDelivery) || errors.Is(err, service.ErrNotImplemented)
}

// sentence capitalizes msg and terminates it with a period.
func sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	runes := []rune(msg)
	runes[0] = unicode.ToUpper(runes[0])
	msg = string(runes)
	if !strings.HasSuffix(msg, ".") && !strings.HasSuffix(msg, "!") {
		msg += "."
	}
	return msg
}
