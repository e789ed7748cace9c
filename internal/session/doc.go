// Package session holds the active user's profile and settings and persists them
// to a preference store.
//
// A Manager owns exactly one profile and one settings record for the lifetime of
// the process. The profile is only written to the store while the user asked to be
// remembered; settings are always written. Persistence failures never surface to
// callers: a failed write leaves the store as it was and a failed read leaves the
// in-memory value untouched. Failures are logged instead.
//
// Consumers that render session state subscribe to change events rather than
// polling the manager.
package session
