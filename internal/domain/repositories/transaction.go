package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles durable-store transactions. Structural tree
// operations run their full path cascade through ExecTx so a crash or error
// mid-cascade never leaves a node whose path disagrees with its parent's.
type TransactionManager interface {
	// ExecTx executes a function within a transaction
	ExecTx(ctx context.Context, fn TxFn) error
}
