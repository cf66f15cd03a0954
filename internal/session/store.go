// Package session holds the per-chat scratch space for in-flight
// conversations. Values are plain strings (JSON for structured data) so
// the in-memory and Postgres-backed stores are interchangeable.
package session

import "context"

// Store is a per-chat key-value space. Keys from different chats never
// observe each other.
type Store interface {
	Get(ctx context.Context, chatID, key string) (string, bool, error)
	Set(ctx context.Context, chatID, key, value string) error
	Delete(ctx context.Context, chatID, key string) error
}
