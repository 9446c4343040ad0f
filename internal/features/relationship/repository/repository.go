package repository

import (
	"context"
	"errors"
	"time"

	"pronet-backend/internal/features/relationship/models"
)

// ErrEdgeConflict is returned when a conditional edge write loses to a
// concurrent operation on the same key.
var ErrEdgeConflict = errors.New("edge already exists")

// ConfirmConnection flips one mirror row to connected.
type ConfirmConnection struct {
	ID          string
	ConnectedAt int64
	UpdatedAt   time.Time
}

// EdgeOp is a single edge-level operation inside an atomic batch. Exactly one
// field is set.
type EdgeOp struct {
	PutFollow          *models.Follow
	DeleteFollowID     string
	PutConnection      *models.Connection
	ConfirmConnection  *ConfirmConnection
	DeleteConnectionID string
}

// EdgeRepository is the edge store holding follow and connection records.
// ExecuteTx applies its operations atomically as one unit; atomicity never
// spans multiple calls, and never covers the aggregate store.
type EdgeRepository interface {
	// GetFollow returns the follow edge for the ordered pair, or (nil, nil)
	// when absent.
	GetFollow(ctx context.Context, followerID, followeeID string) (*models.Follow, error)

	// GetConnection returns the mirror row owned by connectorID, or
	// (nil, nil) when absent.
	GetConnection(ctx context.Context, connectorID, connecteeID string) (*models.Connection, error)

	// ListConnections pages through connectorID's mirror rows filtered by
	// type. The returned cursor is opaque; empty means the listing is
	// exhausted.
	ListConnections(ctx context.Context, connectorID string, connType models.ConnectionType, limit int32, cursor string) ([]models.Connection, string, error)

	ExecuteTx(ctx context.Context, ops []EdgeOp) error
}
