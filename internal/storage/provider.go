// Package storage defines the file-system abstraction the template index
// reads the watched folder through.
package storage

import "context"

// Entry describes one immediate child of a folder.
type Entry struct {
	// Path is the entry's path relative to the provider root, using
	// forward slashes.
	Path  string
	Name  string
	IsDir bool
}

// Provider is the interface for watched-folder file operations. Paths are
// relative to the provider root.
type Provider interface {
	// Stat reports whether path exists and whether it is a folder.
	Stat(ctx context.Context, path string) (Entry, error)
	// ListDir returns the immediate children of the folder at path.
	ListDir(ctx context.Context, path string) ([]Entry, error)
	// Read returns the full text content of the file at path.
	Read(ctx context.Context, path string) ([]byte, error)
}

// EventOp is the kind of a file-system change event.
type EventOp uint8

// Event operations.
const (
	OpCreate EventOp = iota
	OpWrite
	OpRemove
	OpRename
)

func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one file-system change notification. For renames, OldPath holds
// the previous path; Path holds the new path when the notifier knows it
// and is empty otherwise.
type Event struct {
	Op      EventOp
	Path    string
	OldPath string
	IsDir   bool
}

// Notifier delivers change events for a directory tree. The channel is
// closed when ctx is cancelled or the subscription is torn down.
type Notifier interface {
	Subscribe(ctx context.Context, root string) (<-chan Event, error)
}
