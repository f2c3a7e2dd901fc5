package core

// validate.go gates files on their way into the staging area: the name is
// reduced to a safe basename and the content is checked against the size
// bounds. Validation is pure; the caller performs the write.

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validator checks incoming files before they are staged.
type Validator struct {
	maxSize int64
	allowed map[string]bool
}

// NewValidator builds a validator for the given per-file byte limit and
// allowed extensions (without leading dots, e.g. "csv").
func NewValidator(maxSize int64, extensions []string) *Validator {
	return &Validator{
		maxSize: maxSize,
		allowed: extensionSet(extensions),
	}
}

// Validate checks a client-supplied name and content. On success it returns
// the sanitized filename the file should be stored under.
//
// The extension check runs against the sanitized name, so a name that only
// looks acceptable before sanitization ("../.csv") is still rejected and
// every stored file keeps a listed extension.
func (v *Validator) Validate(name string, content []byte) (string, error) {
	clean := SanitizeFilename(name)
	if clean == "" || !extAllowed(clean, v.allowed) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidExtension)
	}
	if len(content) == 0 {
		return "", fmt.Errorf("%q: %w", clean, ErrEmptyFile)
	}
	if int64(len(content)) > v.maxSize {
		return "", &FileTooLargeError{Name: clean, Size: int64(len(content)), Limit: v.maxSize}
	}
	return clean, nil
}

// MaxSize returns the per-file byte limit.
func (v *Validator) MaxSize() int64 { return v.maxSize }

/// SanitizeFilename reduces a client-supplied filename to a safe basename:
// path separators become spaces, whitespace runs collapse to a single
// underscore, bytes outside [A-Za-z0-9_.-] are dropped, and leading or
// trailing dots and underscores are stripped. The result never contains a
// path separator or a leading dot, so it cannot address anything outside
// the staging directory. An empty result means nothing usable was left.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", " ")
	name = strings.ReplaceAll(name, "\\", " ")
	joined := strings.Join(strings.Fields(name), "_")

	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}

	return strings.Trim(b.String(), "._")
}

// extensionSet normalizes a list of extensions into a lookup set without
// leading dots.
func extensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

// extAllowed reports whether name carries an extension from the set.
func extAllowed(name string, allowed map[string]bool) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return ext != "" && allowed[ext]
}
