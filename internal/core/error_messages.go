// Package core provides the business logic for CSV staging and combining.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Validation Errors (VAL001-VAL099)
//
// Errors raised before a file enters the staging area:
//
//	VAL001 - Invalid type: File type not allowed
//	         Action: Upload files with a .csv extension
//	         Patterns: "file type not allowed"
//
//	VAL002 - Empty file: The uploaded file is empty
//	         Action: Upload a CSV file with data rows
//	         Patterns: "file is empty"
//
//	VAL003 - File too large: File exceeds the size limit
//	         Action: Split the file into smaller chunks
//	         Patterns: "exceeds the size limit"
//
// # Storage Errors (STO001-STO099)
//
// Errors raised by the staging directory:
//
//	STO001 - Write failed: Could not store the file
//	         Action: Please try again
//	         Patterns: "could not store"
//
//	STO002 - Empty after write: The file was empty after writing
//	         Action: Re-save the file and upload it again
//	         Patterns: "empty after writing"
//
//	STO003 - Not found: File not found
//	         Action: Refresh the page to see the current files
//	         Patterns: "file not found"
//
//	STO004 - Remove failed: Could not delete the file
//	         Action: Please try again
//	         Patterns: "could not delete"
//
//	STO005 - Read failed: Could not read the file
//	         Action: Please try again
//	         Patterns: "could not read"
//
// # Combine Errors (CMB001-CMB099)
//
// Errors raised by the combine pipeline; none of them delete anything:
//
//	CMB001 - No files: There are no files to combine
//	         Action: Upload at least one CSV file first
//	         Patterns: "no files to combine"
//
//	CMB002 - File vanished: A file disappeared during the combine
//	         Action: Refresh the page and try again
//	         Patterns: "disappeared before combining"
//
//	CMB003 - Header mismatch: Column headers do not match across files
//	         Action: Make every file's header row identical and retry
//	         Patterns: "column headers do not match"
//
//	CMB004 - Encoding error: File content is not valid UTF-8
//	         Action: Save the file with UTF-8 encoding
//	         Patterns: "not valid utf-8"
//
//	CMB005 - Malformed CSV: A file could not be parsed
//	         Action: Ensure the file is comma-separated with consistent columns
//	         Patterns: "malformed csv"
//
//	CMB006 - No data: Every file was empty or header-only
//	         Action: Upload files that contain data rows
//	         Patterns: "no data rows found"
//
// # Operation Errors (OPS001-OPS099)
//
// Errors from concurrency control and request lifecycle:
//
//	OPS001 - System busy: Too many operations in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent operations"
//
//	OPS002 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	OPS003 - Request timeout: Request timed out
//	         Action: Try uploading smaller files or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are defined
// before general ones (CMB004 before CMB005: an encoding failure surfaces
// inside a parse error and must map to the encoding guidance).
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Validation Errors (VAL001-VAL003)
	// These errors reject a file before it enters the staging area.
	// =========================================================================
	{
		pattern: "file type not allowed",
		msg: UserMessage{
			Message: "File type not allowed",
			Action:  "Upload files with a .csv extension",
			Code:    "VAL001",
		},
	},
	{
		pattern: "file is empty",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a CSV file with data rows",
			Code:    "VAL002",
		},
	},
	{
		pattern: "exceeds the size limit",
		msg: UserMessage{
			Message: "File exceeds the size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// Storage Errors (STO001-STO005)
	// These errors come from the staging directory.
	// =========================================================================
	{
		pattern: "could not store",
		msg: UserMessage{
			Message: "Could not store the file",
			Action:  "Please try again",
			Code:    "STO001",
		},
	},
	{
		pattern: "empty after writing",
		msg: UserMessage{
			Message: "The file was empty after writing",
			Action:  "Re-save the file and upload it again",
			Code:    "STO002",
		},
	},
	{
		pattern: "file not found",
		msg: UserMessage{
			Message: "File not found",
			Action:  "Refresh the page to see the current files",
			Code:    "STO003",
		},
	},
	{
		pattern: "could not delete",
		msg: UserMessage{
			Message: "Could not delete the file",
			Action:  "Please try again",
			Code:    "STO004",
		},
	},
	{
		pattern: "could not read",
		msg: UserMessage{
			Message: "Could not read the file",
			Action:  "Please try again",
			Code:    "STO005",
		},
	},

	// =========================================================================
	// Combine Errors (CMB001-CMB006)
	// These errors abort a combine with nothing deleted.
	// =========================================================================
	{
		pattern: "no files to combine",
		msg: UserMessage{
			Message: "There are no files to combine",
			Action:  "Upload at least one CSV file first",
			Code:    "CMB001",
		},
	},
	{
		pattern: "disappeared before combining",
		msg: UserMessage{
			Message: "A file disappeared during the combine",
			Action:  "Refresh the page and try again",
			Code:    "CMB002",
		},
	},
	{
		pattern: "column headers do not match",
		msg: UserMessage{
			Message: "Column headers do not match across files",
			Action:  "Make every file's header row identical and retry",
			Code:    "CMB003",
		},
	},
	// CMB004 must precede CMB005: encoding failures surface inside parse
	// errors and the encoding guidance is the useful one.
	{
		pattern: "not valid utf-8",
		msg: UserMessage{
			Message: "File content is not valid UTF-8",
			Action:  "Save the file with UTF-8 encoding",
			Code:    "CMB004",
		},
	},
	{
		pattern: "malformed csv",
		msg: UserMessage{
			Message: "A file could not be parsed as CSV",
			Action:  "Ensure the file is comma-separated with consistent columns",
			Code:    "CMB005",
		},
	},
	{
		pattern: "no data rows found",
		msg: UserMessage{
			Message: "Every file was empty or header-only",
			Action:  "Upload files that contain data rows",
			Code:    "CMB006",
		},
	},

	// =========================================================================
	// Operation Errors (OPS001-OPS003)
	// These errors come from concurrency control and request lifecycle.
	// =========================================================================
	{
		pattern: "too many concurrent operations",
		msg: UserMessage{
			Message: "System is busy processing other requests",
			Action:  "Please wait a moment and try again",
			Code:    "OPS001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "OPS002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading smaller files or check your connection",
			Code:    "OPS003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("%q: %w", name, ErrEmptyFile)
//	msg := MapError(err)
//	// msg.Code == "VAL002"
//	// msg.Message == "The uploaded file is empty"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "File type not allowed (Code: VAL001). Upload files with a .csv extension"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean
// message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
