package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/query"
)

// Collection is the capability the generic handlers need from a resource
// service. T is the record, C the create payload and U the patch payload.
type Collection[T, C, U any] interface {
	Find(ctx context.Context, spec query.Spec) ([]*T, error)
	Get(ctx context.Context, id uuid.UUID, expand ...string) (*T, error)
	Create(ctx context.Context, in *C) (*T, error)
	Update(ctx context.Context, id uuid.UUID, in *U) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScopeFunc narrows a list query with request-derived conditions, such as
// the tour of a nested review route.
type ScopeFunc func(r *http.Request, spec query.Spec) (query.Spec, error)

// GuardFunc decides whether the request may modify the record id.
type GuardFunc func(r *http.Request, id uuid.UUID) error

type handlerOptions struct {
	scope      ScopeFunc
	createHook func(r *http.Request, in any) error
	guard      GuardFunc
	expand     []string
	fixedExp   bool
	query      query.Options
}

// Option configures a generated handler.
type Option func(*handlerOptions)

// WithScope applies fn to every list query before it reaches the service.
func WithScope(fn ScopeFunc) Option {
	return func(o *handlerOptions) { o.scope = fn }
}

// WithCreateHook runs fn on the decoded create payload before validation.
// It is used to inject the caller's identity and path parameters.
func WithCreateHook[C any](fn func(r *http.Request, in *C) error) Option {
	return func(o *handlerOptions) {
		o.createHook = func(r *http.Request, in any) error {
			typed, ok := in.(*C)
			if !ok {
				return fmt.Errorf("create hook expects %T, got %T", new(C), in)
			}
			return fn(r, typed)
		}
	}
}

// WithGuard runs fn before Update and Delete touch the record.
func WithGuard(fn GuardFunc) Option {
	return func(o *handlerOptions) { o.guard = fn }
}

// WithExpand fixes the expansion GetOne requests. Without it GetOne reads
// the expand query parameter.
func WithExpand(fields ...string) Option {
	return func(o *handlerOptions) {
		o.expand = fields
		o.fixedExp = true
	}
}

// WithQueryOptions sets the paging defaults of ListAll.
func WithQueryOptions(opts query.Options) Option {
	return func(o *handlerOptions) { o.query = opts }
}

func collectOptions(opts []Option) handlerOptions {
	var o handlerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ListAll responds with every record matching the request's query string.
func ListAll[T, C, U any](coll Collection[T, C, U], opts ...Option) http.HandlerFunc {
	o := collectOptions(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		spec := query.FromValues(r.URL.Query(), o.query)
		if o.scope != nil {
			var err error
			if spec, err = o.scope(r, spec); err != nil {
				HandleAPIError(w, r, err)
				return
			}
		}

		records, err := coll.Find(r.Context(), spec)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		items, err := query.Project(records, spec)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondList(w, r, items)
	}
}

// GetOne responds with the record named by the id path parameter.
func GetOne[T, C, U any](coll Collection[T, C, U], opts ...Option) http.HandlerFunc {
	o := collectOptions(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := getPathUUID(r, "id")
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		expand := o.expand
		if !o.fixedExp {
			expand = expandParam(r)
		}

		record, err := coll.Get(r.Context(), id, expand...)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondSuccess(w, r, http.StatusOK, "data", record)
	}
}

// Create decodes, validates and stores a new record.
func Create[T, C, U any](coll Collection[T, C, U], opts ...Option) http.HandlerFunc {
	o := collectOptions(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		in := new(C)
		if err := shared.DecodeJSON(r, in); err != nil {
			HandleAPIError(w, r, err)
			return
		}
		if o.createHook != nil {
			if err := o.createHook(r, in); err != nil {
				HandleAPIError(w, r, err)
				return
			}
		}
		if err := shared.ValidateRequest(in); err != nil {
			HandleAPIError(w, r, err)
			return
		}

		record, err := coll.Create(r.Context(), in)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondSuccess(w, r, http.StatusCreated, "data", record)
	}
}

// Update applies a partial update to the record named by the id path
// parameter.
func Update[T, C, U any](coll Collection[T, C, U], opts ...Option) http.HandlerFunc {
	o := collectOptions(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := getPathUUID(r, "id")
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		in := new(U)
		if err := shared.DecodeJSON(r, in); err != nil {
			HandleAPIError(w, r, err)
			return
		}
		if err := shared.ValidateRequest(in); err != nil {
			HandleAPIError(w, r, err)
			return
		}
		if o.guard != nil {
			if err := o.guard(r, id); err != nil {
				HandleAPIError(w, r, err)
				return
			}
		}

		record, err := coll.Update(r.Context(), id, in)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondSuccess(w, r, http.StatusOK, "data", record)
	}
}

// Delete removes the record named by the id path parameter and responds
// 204 with no body.
func Delete[T, C, U any](coll Collection[T, C, U], opts ...Option) http.HandlerFunc {
	o := collectOptions(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := getPathUUID(r, "id")
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}
		if o.guard != nil {
			if err := o.guard(r, id); err != nil {
				HandleAPIError(w, r, err)
				return
			}
		}

		if err := coll.Delete(r.Context(), id); err != nil {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondNoContent(w)
	}
}
