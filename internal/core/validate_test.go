package core

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================================
// SanitizeFilename Tests
// ============================================================================

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name unchanged",
			input: "report.csv",
			want:  "report.csv",
		},
		{
			name:  "spaces become underscores",
			input: "my report.csv",
			want:  "my_report.csv",
		},
		{
			name:  "whitespace runs collapse",
			input: "a b  \t c.csv",
			want:  "a_b_c.csv",
		},
		{
			name:  "path traversal stripped",
			input: "../../etc/passwd",
			want:  "etc_passwd",
		},
		{
			name:  "windows separators stripped",
			input: `..\..\windows\system.csv`,
			want:  "windows_system.csv",
		},
		{
			name:  "absolute path stripped",
			input: "/var/data/export.csv",
			want:  "var_data_export.csv",
		},
		{
			name:  "leading dot stripped",
			input: ".hidden.csv",
			want:  "hidden.csv",
		},
		{
			name:  "special characters dropped",
			input: "data(1);rm -rf.csv",
			want:  "data1rm_-rf.csv",
		},
		{
			name:  "non-ascii dropped",
			input: "naïve.csv",
			want:  "nave.csv",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "only dots and underscores",
			input: "..._...",
			want:  "",
		},
		{
			name:  "interior dots kept",
			input: "report.2024.csv",
			want:  "report.2024.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Validator Tests
// ============================================================================

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(1024, []string{"csv"})

	tests := []struct {
		name       string
		fileName   string
		content    []byte
		wantStored string
		wantErr    error
	}{
		{
			name:       "valid file accepted",
			fileName:   "data.csv",
			content:    []byte("a,b\n1,2\n"),
			wantStored: "data.csv",
		},
		{
			name:       "extension check is case-insensitive",
			fileName:   "DATA.CSV",
			content:    []byte("a,b\n1,2\n"),
			wantStored: "DATA.CSV",
		},
		{
			name:       "traversal name stored under basename",
			fileName:   "../../export.csv",
			content:    []byte("a\n1\n"),
			wantStored: "export.csv",
		},
		{
			name:     "wrong extension rejected",
			fileName: "data.txt",
			content:  []byte("a,b\n"),
			wantErr:  ErrInvalidExtension,
		},
		{
			name:     "no extension rejected",
			fileName: "README",
			content:  []byte("a,b\n"),
			wantErr:  ErrInvalidExtension,
		},
		{
			name:     "extension lost in sanitization rejected",
			fileName: "../.csv",
			content:  []byte("a,b\n"),
			wantErr:  ErrInvalidExtension,
		},
		{
			name:     "name that sanitizes to nothing rejected",
			fileName: "///",
			content:  []byte("a,b\n"),
			wantErr:  ErrInvalidExtension,
		},
		{
			name:     "empty content rejected",
			fileName: "data.csv",
			content:  nil,
			wantErr:  ErrEmptyFile,
		},
		{
			name:     "oversized content rejected",
			fileName: "data.csv",
			content:  bytes.Repeat([]byte("x"), 1025),
			wantErr:  ErrFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := v.Validate(tt.fileName, tt.content)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate(%q) error = %v, want %v", tt.fileName, err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Validate(%q) unexpected error: %v", tt.fileName, err)
			}
			if stored != tt.wantStored {
				t.Errorf("Validate(%q) stored name = %q, want %q", tt.fileName, stored, tt.wantStored)
			}
		})
	}
}

func TestValidator_TooLargeCarriesSizes(t *testing.T) {
	v := NewValidator(10, []string{"csv"})

	_, err := v.Validate("big.csv", bytes.Repeat([]byte("x"), 11))

	var tooLarge *FileTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected *FileTooLargeError, got %v", err)
	}
	if tooLarge.Size != 11 {
		t.Errorf("Size = %d, want 11", tooLarge.Size)
	}
	if tooLarge.Limit != 10 {
		t.Errorf("Limit = %d, want 10", tooLarge.Limit)
	}
	if tooLarge.Name != "big.csv" {
		t.Errorf("Name = %q, want %q", tooLarge.Name, "big.csv")
	}
}

func TestValidator_SizeAtLimitAccepted(t *testing.T) {
	v := NewValidator(8, []string{"csv"})

	if _, err := v.Validate("edge.csv", []byte("12345678")); err != nil {
		t.Errorf("content at exactly the limit should pass, got %v", err)
	}
}

func TestNewValidator_NormalizesExtensions(t *testing.T) {
	// Leading dots and mixed case in the configured list are tolerated.
	v := NewValidator(1024, []string{".CSV", " tsv "})

	if _, err := v.Validate("a.csv", []byte("x\n1\n")); err != nil {
		t.Errorf("csv should be allowed: %v", err)
	}
	if _, err := v.Validate("a.tsv", []byte("x\n1\n")); err != nil {
		t.Errorf("tsv should be allowed: %v", err)
	}
	if _, err := v.Validate("a.txt", []byte("x\n1\n")); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("txt should be rejected, got %v", err)
	}
}
