// Package mongodb implements the store interfaces on MongoDB.
//
// Documents keep the JSON field names of the domain types, so query specs
// render to bson filters without a column map beyond id -> _id.
// Identifiers are stored as UUID strings. Geo queries rely on the 2dsphere
// index created by EnsureIndexes.
package mongodb
