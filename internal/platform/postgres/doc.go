// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package.
// It handles the details of database connections, query execution, and data
// mapping between domain entities and database records.
//
// All stores share one *DB. Store methods run on the transaction carried by
// the context when DB.RunInTx started one, and on the pool otherwise.
// Schema changes live in the embedded migrations directory and are applied
// with Migrate.
package postgres
