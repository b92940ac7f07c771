// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and the stores
// defined in internal/store.
//
// Key components:
//
//   - TourService: tour CRUD, expansion of reviews and guides, and the
//     statistics, monthly plan and geo queries.
//   - ReviewService: review CRUD. Every mutation recomputes the owning
//     tour's rating in the same transaction and emits review.changed once
//     the transaction has committed.
//   - UserService: administrative user CRUD plus the self-service
//     me, updateMe and deleteMe operations.
//   - AuthService: signup, login, token verification and the password
//     reset lifecycle.
//
// Services receive their dependencies through constructor injection and
// never depend on a concrete storage backend. The API layer maps the
// sentinel errors below to HTTP status codes.
package service
