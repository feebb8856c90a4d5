package store

import "errors"

var (
	// ErrStaleSnapshot is returned by Save when the stored snapshot for the
	// key was observed after the snapshot being saved. It signals a concurrent
	// run that finished later; the stored snapshot is left untouched.
	ErrStaleSnapshot = errors.New("stored snapshot is newer than the one being saved")

	// ErrUnsupportedScheme is returned by Open for an unknown URI scheme.
	ErrUnsupportedScheme = errors.New("unsupported store scheme")
)
