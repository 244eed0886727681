package repository

import (
	"context"
	"time"

	"setdb-init/internal/bootstrap/domain/model"
)

// AdminRepository is the administrative interface of the database server.
// Implementations map server faults onto the shared error taxonomy:
// ErrDuplicatePrincipal, ErrDuplicateCollection and ErrConnectionUnavailable.
type AdminRepository interface {
	// Ping verifies the administrative endpoint is reachable
	Ping(ctx context.Context) error
	// ListDatabases returns the names of all databases on the server
	ListDatabases(ctx context.Context) ([]string, error)

	// GetUser returns the principal or nil when it does not exist
	GetUser(ctx context.Context, database, username string) (*model.Principal, error)
	// CreateUser creates the principal with its role bindings
	CreateUser(ctx context.Context, database string, principal *model.Principal) error
	// GrantRoles adds role bindings to an existing principal
	GrantRoles(ctx context.Context, database, username string, roles []model.RoleBinding) error

	// CreateCollection creates an empty collection
	CreateCollection(ctx context.Context, database, name string) error
	// ListCollections returns the collection names of a database
	ListCollections(ctx context.Context, database string) ([]string, error)
	// CountDocuments returns the number of documents in a collection
	CountDocuments(ctx context.Context, database, collection string) (int64, error)
}

// RunLock serializes bootstrap runs across processes
type RunLock interface {
	// Acquire takes the lock for key, returning false when another holder owns it
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Release frees the lock if it is still held by token
	Release(ctx context.Context, key, token string) error
}
