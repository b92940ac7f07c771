// Package mocks provides function-field fakes of the service and auth
// interfaces for handler and middleware tests. Each fake calls its XxxFn
// field when set and otherwise falls back to its default fields, usually
// a zero value and Err.
//
//	tours := &mocks.MockTourService{
//	    GetFn: func(ctx context.Context, id uuid.UUID, expand ...string) (*domain.Tour, error) {
//	        return &domain.Tour{ID: id}, nil
//	    },
//	}
package mocks
