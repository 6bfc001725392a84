// Package storage persists profile and layout documents as JSON files.
//
// # Layout
//
// Documents are grouped by Kind, one directory per kind under the data root:
//
//	<root>/profiles/default.json
//	<root>/profiles/Profile 1.json
//	<root>/layouts/default.json
//
// A document's name is its file stem. List returns the stems of all .json
// files in a kind's directory, sorted; a directory that does not exist yet
// lists as empty.
//
// # Writes
//
// Write creates the kind directory on demand and replaces the file by writing
// a hidden temp file in the same directory and renaming it over the target,
// so readers never see a partially written document.
//
// # Caching
//
// FileSystemStore keeps an expiring LRU of recently read documents keyed by
// path, together with the file's mtime and size. Every Read stats the file and
// only serves the cached body while both are unchanged, so edits made by other
// processes are always seen. Writes through the store refresh the entry and
// the file watcher calls Invalidate on every change it sees.
package storage
