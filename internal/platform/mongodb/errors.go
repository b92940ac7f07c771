package mongodb

import (
	"errors"

	"github.com/phrazzld/tourbook-api/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// mapError translates a driver error from operation op on entity into a
// store.StoreError. notFound and duplicate replace the generic sentinels
// when non-nil.
func mapError(entity, op string, err, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		if notFound == nil {
			notFound = store.ErrNotFound
		}
		return store.NewStoreError(entity, op, "no matching document", notFound)
	case mongo.IsDuplicateKeyError(err):
		if duplicate == nil {
			duplicate = store.ErrDuplicate
		}
		return store.NewStoreError(entity, op, err.Error(), duplicate)
	}
	return store.NewStoreError(entity, op, "driver error", err)
}
