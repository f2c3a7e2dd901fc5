package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Sentinel errors for the staging and combine workflow. Callers add file
// context with fmt.Errorf("...: %w", err); errors.Is still matches.
var (
	// ErrInvalidExtension rejects files whose name has no extension or an
	// extension outside the allowed set.
	ErrInvalidExtension = errors.New("file type not allowed")

	// ErrEmptyFile rejects zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")

	// ErrFileTooLarge rejects uploads over the configured per-file limit.
	ErrFileTooLarge = errors.New("file exceeds the size limit")

	// ErrWriteFailed covers any failure to persist a file into the
	// staging area.
	ErrWriteFailed = errors.New("could not store file")

	// ErrEmptyAfterWrite reports that a write committed zero bytes. The
	// offending file is removed before this is returned.
	ErrEmptyAfterWrite = errors.New("file was empty after writing")

	// ErrNotFound reports a name with no file behind it.
	ErrNotFound = errors.New("file not found")

	// ErrRemoveFailed covers deletion failures other than absence.
	ErrRemoveFailed = errors.New("could not delete file")

	// ErrReadFailed covers read failures other than absence.
	ErrReadFailed = errors.New("could not read file")

	// ErrNoFiles means a combine was requested with an empty staging area.
	ErrNoFiles = errors.New("no files to combine")

	// ErrFileVanished means a file listed at the start of a combine was
	// gone by the time it was read. The whole combine aborts.
	ErrFileVanished = errors.New("file disappeared before combining")

	// ErrHeaderMismatch means a file's header differs from the reference
	// header. The whole combine aborts.
	ErrHeaderMismatch = errors.New("column headers do not match")

	// ErrInvalidEncoding means file content is not valid UTF-8.
	ErrInvalidEncoding = errors.New("content is not valid utf-8")

	// ErrNoValidData means every staged file was empty or header-only, so
	// there was nothing to combine.
	ErrNoValidData = errors.New("no data rows found in any file")
)

// FileTooLargeError carries the actual and allowed sizes for display.
type FileTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file exceeds the size limit (%s > %s)",
		e.Name, humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// FileVanishedError names the file that was listed but unreadable.
type FileVanishedError struct {
	Name string
}

func (e *FileVanishedError) Error() string {
	return fmt.Sprintf("%s: file disappeared before combining", e.Name)
}

func (e *FileVanishedError) Unwrap() error { return ErrFileVanished }

// HeaderMismatchError names the offending file and both header rows.
type HeaderMismatchError struct {
	Name string
	Want []string
	Got  []string
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("%s: column headers do not match (want [%s], got [%s])",
		e.Name, strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}

func (e *HeaderMismatchError) Unwrap() error { return ErrHeaderMismatch }

// ParseError names the file that failed CSV decoding and keeps the decoder
// error reachable through Unwrap.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed csv: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
