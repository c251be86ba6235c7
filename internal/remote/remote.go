// Package remote defines the contract between the sync engine and the
// content service transport. Implementations live in subpackages.
package remote

import (
	"context"

	"github.com/ardietz/confsync/internal/domain"
)

// Service is the remote content service consumed by the sync engine.
// All implementations must map transport failures to domain-level errors.
// Retry policy is the implementation's responsibility; the engine never
// retries.
type Service interface {
	// FindPage looks up a page by exact title under the given parent.
	// An empty parentID scopes the query to the space top level.
	// Returns domain.ErrNotFound when no page matches. When the service
	// returns several matches (title uniqueness is a convention it does
	// not enforce) the first by creation order is chosen.
	// Transport failures wrap domain.ErrLookup.
	FindPage(ctx context.Context, title, parentID string) (domain.RemotePage, error)

	// GetPage fetches a page by ID. Returns domain.ErrNotFound for
	// unknown IDs.
	GetPage(ctx context.Context, pageID string) (domain.RemotePage, error)

	// CreatePage creates a page with the given body under parentID and
	// returns the new page's ID. An empty parentID creates the page at
	// the space top level.
	CreatePage(ctx context.Context, title, parentID, body string) (string, error)

	// UpdatePage overwrites the body and title of an existing page.
	// The implementation handles version bookkeeping.
	UpdatePage(ctx context.Context, pageID, title, body string) error

	// UploadAttachment attaches the file at path to the given page,
	// replacing any attachment of the same name.
	UploadAttachment(ctx context.Context, pageID, path string) error

	// ApplyPermission applies the resolved access level to a page.
	// Non-restricted levels are a no-op.
	ApplyPermission(ctx context.Context, pageID string, perm domain.Permission) error

	// Close releases any resources held by the service
	Close() error
}
