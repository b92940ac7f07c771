// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// Two implementations exist: platform/postgres and platform/mongo. Both
// return the sentinel errors declared here so services and handlers can
// branch on errors.Is without knowing the backend.
package store
