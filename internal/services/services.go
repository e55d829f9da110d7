// package services defines interface Service for reading playlists from a remote music service
package services

import (
	"context"

	"github.com/desertthunder/spotsync/internal/models"
)

// Service defines the read-only view of a music service that the sync engine mirrors.
type Service interface {
	// Authenticate performs OAuth authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// UserPlaylists lists the authenticated user's playlists in service order, stopping after limit.
	// A limit of zero or less lists every playlist.
	UserPlaylists(ctx context.Context, limit int) ([]models.PlaylistRef, error)

	// PlaylistTracks returns every track in the playlist in playlist order.
	// Non-track items, local files, unresolved records and repeated IDs are dropped.
	PlaylistTracks(ctx context.Context, ref models.PlaylistRef) ([]models.Track, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
