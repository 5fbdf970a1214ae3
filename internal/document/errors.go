package document

import "errors"

var (
	// ErrIndexOutOfRange is returned when a positional lookup or removal
	// addresses an element that does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyBucket is returned when the last condition of an empty
	// condition bucket is requested.
	ErrEmptyBucket = errors.New("condition bucket is empty")

	// ErrAddressOutOfRange is returned when a rule targets an address
	// outside 1..LastAddress()-1.
	ErrAddressOutOfRange = errors.New("address out of range")
)
