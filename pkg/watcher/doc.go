// Package watcher keeps the application in sync with profile and layout
// files edited by hand or by another process.
package watcher
