// Package api exposes tours, users and reviews over HTTP. Generic CRUD
// handlers come from factory.go; resource handlers add the routes that do
// not fit it, such as aggregations, geo search and the auth lifecycle.
// Every failure leaves through HandleAPIError.
package api
