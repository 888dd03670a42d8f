// Package services defines the shared error taxonomy for toondex components.
//
// Errors are wrapped with sentinel markers so callers can classify failures
// (malformed input, external catalog trouble, store writes) without parsing
// message text.
package services
