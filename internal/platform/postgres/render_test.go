package postgres

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedTourSpec(t *testing.T, raw string) query.Spec {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	spec, err := store.TourSchema.Resolve(query.FromValues(values, query.Options{}))
	require.NoError(t, err)
	return spec
}

func TestRenderList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "defaults",
			query:    "",
			wantSQL:  "SELECT * FROM tours ORDER BY created_at DESC, id ASC LIMIT $1 OFFSET $2",
			wantArgs: []any{100, 0},
		},
		{
			name:     "range filter and paging",
			query:    "price[gte]=100&duration[lt]=7&page=2&limit=10",
			wantSQL:  "SELECT * FROM tours WHERE duration < $1 AND price >= $2 ORDER BY created_at DESC, id ASC LIMIT $3 OFFSET $4",
			wantArgs: []any{int64(7), 100.0, 10, 10},
		},
		{
			name:     "whitelisted repeat becomes IN",
			query:    "difficulty=easy&difficulty=medium&sort=price,-ratingsAverage",
			wantSQL:  "SELECT * FROM tours WHERE difficulty IN ($1, $2) ORDER BY price ASC, ratings_average DESC, id ASC LIMIT $3 OFFSET $4",
			wantArgs: []any{"easy", "medium", 100, 0},
		},
		{
			name:     "explicit id sort is not duplicated",
			query:    "sort=-id",
			wantSQL:  "SELECT * FROM tours ORDER BY id DESC LIMIT $1 OFFSET $2",
			wantArgs: []any{100, 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sql, args, err := renderList("SELECT * FROM tours", resolvedTourSpec(t, tc.query), tourColumns)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestRenderListExtraPredicate(t *testing.T) {
	t.Parallel()

	tourID := uuid.New()
	spec := query.New(query.Options{}).Where("tour", query.OpEq, tourID)

	sql, args, err := renderList("SELECT r.id FROM reviews r", spec, reviewColumns, "r.rating > 0")
	require.NoError(t, err)
	assert.Equal(t, "SELECT r.id FROM reviews r WHERE r.rating > 0 AND r.tour_id = $1 ORDER BY r.created_at DESC, r.id ASC LIMIT $2 OFFSET $3", sql)
	assert.Equal(t, []any{tourID, 100, 0}, args)
}

func TestRenderListUnknownColumn(t *testing.T) {
	t.Parallel()

	spec := query.New(query.Options{}).Where("nope", query.OpEq, 1)
	_, _, err := renderList("SELECT 1", spec, tourColumns)
	assert.Error(t, err)
}
