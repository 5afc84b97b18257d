package subtitle

import (
	"io"
	"time"
)

// Reader parses a subtitle document.
type Reader interface {
	Read(r io.Reader) (*File, error)
}

// Writer encodes a subtitle document.
type Writer interface {
	Write(w io.Writer, subtitle *File) error
}

// Line is a single subtitle cue.
type Line struct {
	Index     int           // cue number, 1-based
	StartTime time.Duration // start time
	EndTime   time.Duration // end time
	Text      string
}

// File is a parsed or to-be-written subtitle document.
type File struct {
	Lines    []Line
	Language string
	Format   string // e.g. SRT
	Path     string
}
