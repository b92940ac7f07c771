// Package query translates list-endpoint query strings into a backend
// neutral Spec: filter conditions, sort keys, a field selection and a page
// window. Storage backends render a resolved Spec into their own dialect.
//
// Translation happens in two phases. FromValues is purely syntactic and
// never fails. Schema.Resolve binds the raw strings to typed values for a
// particular collection and reports values that cannot be coerced.
package query
