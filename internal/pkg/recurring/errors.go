package recurring

import "errors"

var (
	// ErrEmptyEdit rejects an edit that would leave the proposal without lines.
	ErrEmptyEdit = errors.New("edit would leave no items in the proposal")
	// ErrInvalidQuantity rejects a line with a non-positive quantity that was
	// not explicitly flagged for removal.
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	// ErrUnknownProduct rejects an edit line referencing a product the catalog
	// has never heard of.
	ErrUnknownProduct = errors.New("unknown product reference")
	// ErrNoOrderableItems rejects confirming a proposal whose lines have all
	// become unavailable.
	ErrNoOrderableItems = errors.New("proposal has no orderable items")
	// ErrUnknownFrequency rejects a plan setup with an unsupported interval.
	ErrUnknownFrequency = errors.New("unknown delivery frequency")
)
