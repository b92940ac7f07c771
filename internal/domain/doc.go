// Package domain holds the tour, user and review entities together with
// their validation rules, patch types and geo helpers.
package domain
