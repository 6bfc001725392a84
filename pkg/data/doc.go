// Package data holds the persisted documents that capture extension settings
// and the manager that switches between them.
//
// A Profile records each extension's enabled flag and configuration; a Layout
// records each extension's on-screen geometry. Both are stored as JSON under
// the data directory, one file per document, named after the document.
//
// Switching loads the named document, reconciles it with the registered
// extensions (OnLoad), makes it current, saves it back and finally applies it
// to the extensions. Saving always happens before applying, so a failed
// apply still leaves the reconciled document on disk.
package data
