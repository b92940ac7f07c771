package mongodb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoOps = map[query.Op]string{
	query.OpEq:  "$eq",
	query.OpGt:  "$gt",
	query.OpGte: "$gte",
	query.OpLt:  "$lt",
	query.OpLte: "$lte",
	query.OpIn:  "$in",
}

// key maps a schema field to its document key.
func key(field string) string {
	if field == query.IDField {
		return "_id"
	}
	return field
}

// bsonValue converts resolved condition values to their stored form.
func bsonValue(v any) any {
	switch x := v.(type) {
	case uuid.UUID:
		return x.String()
	case time.Time:
		return x.UTC()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = bsonValue(e)
		}
		return out
	}
	return v
}

// renderFilter turns the conditions of a resolved Spec into a filter.
// Conditions on the same field merge into one operator document. extra
// entries are appended as given.
func renderFilter(conds []query.Condition, extra ...bson.E) (bson.D, error) {
	filter := bson.D{}
	index := map[string]int{}
	for _, c := range conds {
		op, ok := mongoOps[c.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		if c.Op == query.OpIn {
			if values, ok := c.Value.([]any); !ok || len(values) == 0 {
				return nil, fmt.Errorf("invalid value list for %q", c.Field)
			}
		}
		k := key(c.Field)
		entry := bson.E{Key: op, Value: bsonValue(c.Value)}
		if i, ok := index[k]; ok {
			filter[i].Value = append(filter[i].Value.(bson.D), entry)
			continue
		}
		index[k] = len(filter)
		filter = append(filter, bson.E{Key: k, Value: bson.D{entry}})
	}
	return append(filter, extra...), nil
}

// renderSort returns the sort document followed by the _id tie-break.
func renderSort(keys []query.SortKey) bson.D {
	sort := bson.D{}
	seenID := false
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: key(k.Field), Value: dir})
		seenID = seenID || k.Field == query.IDField
	}
	if !seenID {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return sort
}

// findOptions applies the sort and page of a resolved Spec.
func findOptions(spec query.Spec) *options.FindOptions {
	return options.Find().
		SetSort(renderSort(spec.Sort())).
		SetSkip(int64(spec.Skip())).
		SetLimit(int64(spec.Limit()))
}
