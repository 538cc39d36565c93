// Package storage defines the read-only view of an import vault.
package storage

import "time"

// FileMeta describes one Markdown file in a vault.
type FileMeta struct {
	Path      string // relative to the vault root, slash separated
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for reading vault files.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
}
