// Package testdb provides utilities specifically for database testing.
//
// Tests using it carry the integration build tag and are skipped unless
// TOURBOOK_TEST_DATABASE_URL (or DATABASE_URL) names a disposable Postgres
// database:
//
//	TOURBOOK_TEST_DATABASE_URL=postgres://... go test -tags=integration ./...
//
// Open migrates the schema once per test binary. WithTx runs a test body
// in a transaction that is always rolled back, so tests never see each
// other's rows.
package testdb
