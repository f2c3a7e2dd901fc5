// Package core provides the business logic for CSV staging and combining.
//
// This package is the heart of the service, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around a few key pieces:
//
//   - Validator: gates files on their way in (extension, emptiness, size)
//     and reduces client-supplied names to safe basenames.
//   - Store: the staging-area contract; [Dir] implements it over a single
//     directory with atomic writes and lazy, name-sorted listings.
//   - Combiner: merges every staged file under one reference header and
//     clears the area after a successful merge.
//   - Service: the entry point tying the above together with concurrency
//     limiting and an activity feed.
//
// # Combine Pipeline
//
// A combine is two phases. Produce (list, read, parse, header-check,
// serialize) is all-or-nothing: header mismatches, parse failures, and
// vanished files abort with zero mutation. Cleanup (deleting the sources,
// including files skipped for being empty) runs only after produce
// succeeded and is best effort; individual deletion failures are logged
// and swallowed.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL001-VAL003: Validation errors (type, emptiness, size)
//   - STO001-STO005: Storage errors (write, read, delete)
//   - CMB001-CMB006: Combine errors (headers, parsing, encoding)
//   - OPS001-OPS003: Operation errors (busy, cancelled, timeout)
//
// # Activity Feed
//
// Successful uploads, removals, and combines are recorded in a bounded
// in-memory [ActivityLog] surfaced on the dashboard. The staging directory
// itself is the only durable state; the feed starts empty on restart.
package core
