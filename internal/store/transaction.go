package store

import "context"

// TxFn is a unit of work run by a Transactor. Stores called with the ctx it
// receives take part in the transaction.
type TxFn func(ctx context.Context) error

// Transactor runs a function atomically. The transaction is committed if
// fn returns nil and rolled back otherwise, including when fn panics.
type Transactor interface {
	RunInTx(ctx context.Context, fn TxFn) error
}

// TransactorFunc adapts a function to the Transactor interface.
type TransactorFunc func(ctx context.Context, fn TxFn) error

// RunInTx calls f(ctx, fn).
func (f TransactorFunc) RunInTx(ctx context.Context, fn TxFn) error {
	return f(ctx, fn)
}

// NoTx runs fn directly. It serves backends or deployments without
// multi-document transactions.
var NoTx Transactor = TransactorFunc(func(ctx context.Context, fn TxFn) error {
	return fn(ctx)
})
