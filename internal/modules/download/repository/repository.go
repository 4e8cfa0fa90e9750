package repository

// DuplicateResolver guards destination paths against name collisions.
//
// When a same-named regular file already occupies the destination, NextName
// yields a deterministic alternate to download into, and Reconcile is invoked
// afterwards on that alternate to collapse byte-identical copies.
type DuplicateResolver interface {
	// Exists reports whether a regular file (not a directory) occupies path.
	Exists(path string) bool

	// NextName returns the first free alternate name for an occupied path.
	NextName(path string) string

	// Reconcile compares the freshly downloaded file against its colliding
	// predecessor and removes it when both are byte-identical. It returns the
	// path the content finally lives at.
	Reconcile(downloadedPath string) (string, error)
}
