// Package repodocs aggregates Markdown documentation from many Git
// repositories into one local, searchable store. It clones each configured
// repository, extracts its documents, labels them with a version and replaces
// the repository's snapshot in the store.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gogit/, koanf/).
package repodocs
