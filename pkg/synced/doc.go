// Package synced provides file-backed synced JSON documents.
//
// A [JSONDoc] keeps an in-memory JSON object in step with a file: every
// access refreshes from the file and every mutation writes through, so two
// documents pointing at the same path observe each other's changes. Inside
// a buffered scope ([JSONDoc.EnterBuffered]) reads and writes are routed
// through a [buffer.Backend] instead, deferring file I/O until the
// outermost scope exits.
//
// Files are read tolerantly (HuJSON: comments and trailing commas are
// accepted) and written atomically in strict canonical JSON.
package synced
