package store

import "github.com/phrazzld/tourbook-api/internal/query"

// Query schemas of the three collections. Field names are the JSON names
// of the domain types; backends map them to columns or document keys.
var (
	TourSchema = query.NewSchema("tours",
		query.Field{Name: "name", Kind: query.KindString, Sortable: true},
		query.Field{Name: "duration", Kind: query.KindInt, Sortable: true, Multi: true},
		query.Field{Name: "maxGroupSize", Kind: query.KindInt, Sortable: true, Multi: true},
		query.Field{Name: "difficulty", Kind: query.KindString, Sortable: true, Multi: true},
		query.Field{Name: "ratingsAverage", Kind: query.KindNumber, Sortable: true, Multi: true},
		query.Field{Name: "ratingsQuantity", Kind: query.KindInt, Sortable: true, Multi: true},
		query.Field{Name: "price", Kind: query.KindNumber, Sortable: true, Multi: true},
		query.Field{Name: "priceDiscount", Kind: query.KindNumber, Sortable: true},
		query.Field{Name: "summary", Kind: query.KindString},
		query.Field{Name: "description", Kind: query.KindString},
		query.Field{Name: "imageCover", Kind: query.KindString},
		query.Field{Name: "images", NoFilter: true},
		query.Field{Name: "startDates", NoFilter: true},
		query.Field{Name: "startLocation", NoFilter: true},
		query.Field{Name: "guides", NoFilter: true},
		query.Field{Name: "createdAt", Kind: query.KindTime, Sortable: true},
	)

	UserSchema = query.NewSchema("users",
		query.Field{Name: "name", Kind: query.KindString, Sortable: true},
		query.Field{Name: "email", Kind: query.KindString, Sortable: true},
		query.Field{Name: "photo", Kind: query.KindString},
		query.Field{Name: "role", Kind: query.KindString, Sortable: true, Multi: true},
		query.Field{Name: "createdAt", Kind: query.KindTime, Sortable: true},
	)

	ReviewSchema = query.NewSchema("reviews",
		query.Field{Name: "review", Kind: query.KindString},
		query.Field{Name: "rating", Kind: query.KindInt, Sortable: true, Multi: true},
		query.Field{Name: "tour", Kind: query.KindUUID, Sortable: true},
		query.Field{Name: "user", Kind: query.KindUUID, Sortable: true},
		query.Field{Name: "author", NoFilter: true},
		query.Field{Name: "createdAt", Kind: query.KindTime, Sortable: true},
	)
)
