package service

import (
	"context"
	"errors"
	"time"

	apperrors "pronet-backend/internal/common/errors"
	"pronet-backend/internal/common/logger"
	notifmodels "pronet-backend/internal/features/notification/models"
	notifservice "pronet-backend/internal/features/notification/service"
	"pronet-backend/internal/features/relationship/models"
	"pronet-backend/internal/features/relationship/repository"
	usermodels "pronet-backend/internal/features/user/models"
	userrepository "pronet-backend/internal/features/user/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RelationshipService orchestrates the follow and connection lifecycles. It
// owns no state: every call reads current edge state, validates, drives the
// edge store through its transaction primitive, and then issues counter
// updates against the user store. Edge writes and counter updates are never
// atomic with each other; a failure between them leaves counters stale with
// no compensation.
type RelationshipService interface {
	Follow(ctx context.Context, actorID, followeeID string) (*usermodels.User, error)
	Unfollow(ctx context.Context, actorID, followeeID string) (*usermodels.User, error)

	RequestConnection(ctx context.Context, actorID, connecteeID string) (*models.Connection, error)
	ConfirmConnection(ctx context.Context, actorID, connecteeID string) (*models.Connection, error)
	RemoveConnection(ctx context.Context, actorID, connecteeID string) error

	GetConnection(ctx context.Context, connectorID, connecteeID string) (*models.Connection, error)
	GetConnections(ctx context.Context, userID string, connType models.ConnectionType, limit int32, cursor string) (*models.ConnectionPage, error)
}

type relationshipService struct {
	edges    repository.EdgeRepository
	users    userrepository.UserRepository
	notifier notifservice.Notifier
	now      func() time.Time
}

func NewRelationshipService(edges repository.EdgeRepository, users userrepository.UserRepository, notifier notifservice.Notifier) RelationshipService {
	return &relationshipService{
		edges:    edges,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *relationshipService) Follow(ctx context.Context, actorID, followeeID string) (*usermodels.User, error) {
	if actorID == followeeID {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserRequestSelf)
	}

	existing, err := s.edges.GetFollow(ctx, actorID, followeeID)
	if err != nil {
		return nil, apperrors.NewUnknownError("read follow edge", err)
	}
	if existing != nil {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserFollowing)
	}

	now := s.now()
	follow := &models.Follow{
		ID:         models.FollowID(actorID, followeeID),
		FollowerID: actorID,
		FolloweeID: followeeID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.edges.ExecuteTx(ctx, []repository.EdgeOp{{PutFollow: follow}}); err != nil {
		if errors.Is(err, repository.ErrEdgeConflict) {
			return nil, apperrors.NewRedundantError(apperrors.MsgUserFollowing)
		}
		return nil, apperrors.NewUnknownError("create follow edge", err)
	}

	if err := s.applyCounterDeltas(ctx, followCounterDeltas(actorID, followeeID, +1)); err != nil {
		return nil, err
	}

	return s.userByID(ctx, actorID)
}

func (s *relationshipService) Unfollow(ctx context.Context, actorID, followeeID string) (*usermodels.User, error) {
	if actorID == followeeID {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserRequestSelf)
	}

	existing, err := s.edges.GetFollow(ctx, actorID, followeeID)
	if err != nil {
		return nil, apperrors.NewUnknownError("read follow edge", err)
	}
	if existing == nil {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserNotFollowing)
	}

	if err := s.edges.ExecuteTx(ctx, []repository.EdgeOp{{DeleteFollowID: existing.ID}}); err != nil {
		return nil, apperrors.NewUnknownError("delete follow edge", err)
	}

	// Decrementing is safe here: the edge was just proven to exist, which is
	// what keeps the counters non-negative.
	if err := s.applyCounterDeltas(ctx, followCounterDeltas(actorID, followeeID, -1)); err != nil {
		return nil, err
	}

	return s.userByID(ctx, actorID)
}

func (s *relationshipService) RequestConnection(ctx context.Context, actorID, connecteeID string) (*models.Connection, error) {
	if actorID == connecteeID {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserRequestSelf)
	}

	mine, theirs, err := s.mirrorRows(ctx, actorID, connecteeID)
	if err != nil {
		return nil, err
	}
	if mine != nil || theirs != nil {
		if (mine != nil && mine.IsConnected) || (theirs != nil && theirs.IsConnected) {
			return nil, apperrors.NewRedundantError(apperrors.MsgUserConnected)
		}
		return nil, apperrors.NewRedundantError(apperrors.MsgUserConnectionRequest)
	}

	now := s.now()
	outgoing := &models.Connection{
		ID:          models.ConnectionID(actorID, connecteeID),
		ConnectorID: actorID,
		ConnecteeID: connecteeID,
		InitiatedBy: actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	incoming := &models.Connection{
		ID:          models.ConnectionID(connecteeID, actorID),
		ConnectorID: connecteeID,
		ConnecteeID: actorID,
		InitiatedBy: actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.edges.ExecuteTx(ctx, []repository.EdgeOp{
		{PutConnection: outgoing},
		{PutConnection: incoming},
	})
	if err != nil {
		if errors.Is(err, repository.ErrEdgeConflict) {
			return nil, apperrors.NewRedundantError(apperrors.MsgUserConnectionRequest)
		}
		return nil, apperrors.NewUnknownError("create connection edges", err)
	}

	s.notify(ctx, outgoing.ID, notifmodels.ActivityConnectionRequest)
	return outgoing, nil
}

func (s *relationshipService) ConfirmConnection(ctx context.Context, actorID, connecteeID string) (*models.Connection, error) {
	if actorID == connecteeID {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserRequestSelf)
	}

	mine, theirs, err := s.mirrorRows(ctx, actorID, connecteeID)
	if err != nil {
		return nil, err
	}
	if mine == nil || theirs == nil {
		return nil, apperrors.NewResourceNotFoundError(apperrors.MsgUserNoConnectionRequest)
	}
	if mine.IsConnected || theirs.IsConnected {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserConnected)
	}
	// Only the non-initiating party may confirm.
	if mine.InitiatedBy == actorID || theirs.InitiatedBy == actorID {
		return nil, apperrors.NewAuthorizationError(apperrors.MsgUserCannotConfirm)
	}

	// Stamped once here; both mirror rows carry the same value.
	now := s.now()
	connectedAt := now.UnixMilli()

	actorFollows, err := s.edges.GetFollow(ctx, actorID, connecteeID)
	if err != nil {
		return nil, apperrors.NewUnknownError("read follow edge", err)
	}
	otherFollows, err := s.edges.GetFollow(ctx, connecteeID, actorID)
	if err != nil {
		return nil, apperrors.NewUnknownError("read follow edge", err)
	}

	err = s.edges.ExecuteTx(ctx, []repository.EdgeOp{
		{ConfirmConnection: &repository.ConfirmConnection{ID: mine.ID, ConnectedAt: connectedAt, UpdatedAt: now}},
		{ConfirmConnection: &repository.ConfirmConnection{ID: theirs.ID, ConnectedAt: connectedAt, UpdatedAt: now}},
	})
	if err != nil {
		if errors.Is(err, repository.ErrEdgeConflict) {
			return nil, apperrors.NewResourceNotFoundError(apperrors.MsgUserNoConnectionRequest)
		}
		return nil, apperrors.NewUnknownError("confirm connection edges", err)
	}

	deltas := []counterDelta{
		{actorID, usermodels.CounterConnections, +1},
		{connecteeID, usermodels.CounterConnections, +1},
	}
	if err := s.applyCounterDeltas(ctx, deltas); err != nil {
		return nil, err
	}

	// Confirming implies mutual following for any direction not already
	// covered by an existing follow edge.
	var followOps []repository.EdgeOp
	var followDeltas []counterDelta
	if actorFollows == nil {
		followOps = append(followOps, repository.EdgeOp{PutFollow: &models.Follow{
			ID:         models.FollowID(actorID, connecteeID),
			FollowerID: actorID,
			FolloweeID: connecteeID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}})
		followDeltas = append(followDeltas, followCounterDeltas(actorID, connecteeID, +1)...)
	}
	if otherFollows == nil {
		followOps = append(followOps, repository.EdgeOp{PutFollow: &models.Follow{
			ID:         models.FollowID(connecteeID, actorID),
			FollowerID: connecteeID,
			FolloweeID: actorID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}})
		followDeltas = append(followDeltas, followCounterDeltas(connecteeID, actorID, +1)...)
	}
	if len(followOps) > 0 {
		if err := s.edges.ExecuteTx(ctx, followOps); err != nil {
			return nil, apperrors.NewUnknownError("create follow edges", err)
		}
		if err := s.applyCounterDeltas(ctx, followDeltas); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, mine.ID, notifmodels.ActivityConnectionConfirmation)

	confirmed := *mine
	confirmed.IsConnected = true
	confirmed.ConnectedAt = &connectedAt
	confirmed.UpdatedAt = now
	return &confirmed, nil
}

func (s *relationshipService) RemoveConnection(ctx context.Context, actorID, connecteeID string) error {
	if actorID == connecteeID {
		return apperrors.NewRedundantError(apperrors.MsgUserRequestSelf)
	}

	mine, theirs, err := s.mirrorRows(ctx, actorID, connecteeID)
	if err != nil {
		return err
	}
	if mine == nil || theirs == nil {
		return apperrors.NewResourceNotFoundError(apperrors.MsgUserNoConnectionRequest)
	}
	wasConnected := mine.IsConnected || theirs.IsConnected

	actorFollows, err := s.edges.GetFollow(ctx, actorID, connecteeID)
	if err != nil {
		return apperrors.NewUnknownError("read follow edge", err)
	}
	otherFollows, err := s.edges.GetFollow(ctx, connecteeID, actorID)
	if err != nil {
		return apperrors.NewUnknownError("read follow edge", err)
	}

	err = s.edges.ExecuteTx(ctx, []repository.EdgeOp{
		{DeleteConnectionID: mine.ID},
		{DeleteConnectionID: theirs.ID},
	})
	if err != nil {
		return apperrors.NewUnknownError("delete connection edges", err)
	}

	// A never-confirmed request never touched connectionCount.
	if wasConnected {
		deltas := []counterDelta{
			{actorID, usermodels.CounterConnections, -1},
			{connecteeID, usermodels.CounterConnections, -1},
		}
		if err := s.applyCounterDeltas(ctx, deltas); err != nil {
			return err
		}
	}

	// Disconnecting removes whatever follow edges exist between the pair; a
	// direction that was never followed is simply skipped.
	var followOps []repository.EdgeOp
	var followDeltas []counterDelta
	if actorFollows != nil {
		followOps = append(followOps, repository.EdgeOp{DeleteFollowID: actorFollows.ID})
		followDeltas = append(followDeltas, followCounterDeltas(actorID, connecteeID, -1)...)
	}
	if otherFollows != nil {
		followOps = append(followOps, repository.EdgeOp{DeleteFollowID: otherFollows.ID})
		followDeltas = append(followDeltas, followCounterDeltas(connecteeID, actorID, -1)...)
	}
	if len(followOps) > 0 {
		if err := s.edges.ExecuteTx(ctx, followOps); err != nil {
			return apperrors.NewUnknownError("delete follow edges", err)
		}
		if err := s.applyCounterDeltas(ctx, followDeltas); err != nil {
			return err
		}
	}

	return nil
}

func (s *relationshipService) GetConnection(ctx context.Context, connectorID, connecteeID string) (*models.Connection, error) {
	connection, err := s.edges.GetConnection(ctx, connectorID, connecteeID)
	if err != nil {
		return nil, apperrors.NewUnknownError("read connection edge", err)
	}
	if connection == nil {
		return nil, apperrors.NewResourceNotFoundError(apperrors.MsgResourceNotFound)
	}
	return connection, nil
}

func (s *relationshipService) GetConnections(ctx context.Context, userID string, connType models.ConnectionType, limit int32, cursor string) (*models.ConnectionPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	rows, nextCursor, err := s.edges.ListConnections(ctx, userID, connType, limit, cursor)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.NewUnknownError("list connections", err)
	}

	entries := make([]models.ConnectionEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.ConnectionEntry{Connection: row})
	}

	if len(entries) > 0 {
		ids := make([]string, 0, len(entries))
		seen := make(map[string]bool, len(entries))
		for _, entry := range entries {
			if !seen[entry.ConnecteeID] {
				seen[entry.ConnecteeID] = true
				ids = append(ids, entry.ConnecteeID)
			}
		}

		snapshots, err := s.users.GetSnapshots(ctx, ids)
		if err != nil {
			return nil, apperrors.NewUnknownError("resolve profiles", err)
		}
		byID := make(map[string]usermodels.UserSnapshot, len(snapshots))
		for _, snapshot := range snapshots {
			byID[snapshot.ID] = snapshot
		}
		for i := range entries {
			if snapshot, ok := byID[entries[i].ConnecteeID]; ok {
				snapshot := snapshot
				entries[i].Profile = &snapshot
			}
		}
	}

	return &models.ConnectionPage{Items: entries, NextCursor: nextCursor}, nil
}

type counterDelta struct {
	userID string
	field  usermodels.CounterField
	delta  int64
}

// followCounterDeltas pairs one follow edge with its two counter updates: the
// follower's followeeCount and the followee's followerCount.
func followCounterDeltas(followerID, followeeID string, delta int64) []counterDelta {
	return []counterDelta{
		{followerID, usermodels.CounterFollowees, delta},
		{followeeID, usermodels.CounterFollowers, delta},
	}
}

func (s *relationshipService) applyCounterDeltas(ctx context.Context, deltas []counterDelta) error {
	for _, d := range deltas {
		if err := s.users.IncrementCounter(ctx, d.userID, d.field, d.delta); err != nil {
			return apperrors.NewUnknownError("update counters", err)
		}
	}
	return nil
}

func (s *relationshipService) mirrorRows(ctx context.Context, aID, bID string) (*models.Connection, *models.Connection, error) {
	mine, err := s.edges.GetConnection(ctx, aID, bID)
	if err != nil {
		return nil, nil, apperrors.NewUnknownError("read connection edge", err)
	}
	theirs, err := s.edges.GetConnection(ctx, bID, aID)
	if err != nil {
		return nil, nil, apperrors.NewUnknownError("read connection edge", err)
	}
	return mine, theirs, nil
}

func (s *relationshipService) userByID(ctx context.Context, id string) (*usermodels.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepository.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError(apperrors.MsgResourceNotFound)
		}
		return nil, apperrors.NewUnknownError("read user", err)
	}
	return user, nil
}

func (s *relationshipService) notify(ctx context.Context, resourceRefID string, activityType notifmodels.ActivityType) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, notifmodels.Activity{
		ResourceRefID: resourceRefID,
		ActivityType:  activityType,
	}); err != nil {
		// Delivery is best-effort; the mutation already committed.
		logger.Warn().
			Err(err).
			Str("resource_ref_id", resourceRefID).
			Str("activity_type", string(activityType)).
			Msg("Notification delivery failed")
	}
}
