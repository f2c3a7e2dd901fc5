// Package core provides the business logic for CSV staging and combining.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"time"

	"github.com/dustin/go-humanize"
)

// CombinedFilename is the download name for combined output.
const CombinedFilename = "combined_output.csv"

// StagedFile describes one file waiting in the staging area.
type StagedFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// HumanSize returns the file size in human-readable form ("1.2 MiB").
func (f StagedFile) HumanSize() string {
	return humanize.IBytes(uint64(f.Size))
}

// IncomingFile is one part of an upload batch, read fully into memory
// before validation.
type IncomingFile struct {
	Name string
	Data []byte
}

// UploadOutcome reports the result of staging a single file. Err is nil
// when the file was accepted.
type UploadOutcome struct {
	OriginalName string
	StoredName   string
	Size         int64
	Err          error
}

// Accepted reports whether the file made it into the staging area.
func (o UploadOutcome) Accepted() bool { return o.Err == nil }

// CombineOutput is a successfully combined CSV ready for download.
type CombineOutput struct {
	Filename  string
	Data      []byte
	FileCount int      // files that contributed data rows
	RowCount  int      // data rows in the output
	Skipped   []string // files skipped for having no data
}
