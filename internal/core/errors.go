package core

import "errors"

var (
	// ErrInvalidEventKind rejects an append whose kind is not stock_order or sale.
	ErrInvalidEventKind = errors.New("event kind must be 'stock_order' or 'sale'")

	// ErrUnparsableDate is returned when a stringly-typed date cannot be read
	// as YYYY-MM-DD. Callers fail fast instead of guessing.
	ErrUnparsableDate = errors.New("unparsable date, expected YYYY-MM-DD")

	// ErrUnknownItem is returned when an item name survives normalization
	// without resolving to a catalog entry.
	ErrUnknownItem = errors.New("unknown item")

	// ErrPipelineFailed is the single generic failure surfaced to callers when
	// any pipeline stage errors. It is distinct from a successful run that
	// fulfilled zero lines. Diagnostic detail goes to the log, never to the
	// customer-facing response.
	ErrPipelineFailed = errors.New("request processing failed")
)
