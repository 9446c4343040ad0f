package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronet-backend/internal/common/errors"
	"pronet-backend/internal/common/middleware"
	"pronet-backend/internal/features/relationship/models"
	usermodels "pronet-backend/internal/features/user/models"
)

type fakeRelationshipService struct {
	follows    []string
	removed    []string
	getErr     error
	lastLimit  int32
	lastType   models.ConnectionType
	lastCursor string
}

func (s *fakeRelationshipService) Follow(_ context.Context, actorID, followeeID string) (*usermodels.User, error) {
	s.follows = append(s.follows, actorID+"->"+followeeID)
	return &usermodels.User{ID: actorID, FolloweeCount: 1}, nil
}

func (s *fakeRelationshipService) Unfollow(_ context.Context, actorID, _ string) (*usermodels.User, error) {
	return &usermodels.User{ID: actorID}, nil
}

func (s *fakeRelationshipService) RequestConnection(_ context.Context, actorID, connecteeID string) (*models.Connection, error) {
	return &models.Connection{
		ID:          models.ConnectionID(actorID, connecteeID),
		ConnectorID: actorID,
		ConnecteeID: connecteeID,
		InitiatedBy: actorID,
	}, nil
}

func (s *fakeRelationshipService) ConfirmConnection(_ context.Context, actorID, connecteeID string) (*models.Connection, error) {
	return &models.Connection{ID: models.ConnectionID(actorID, connecteeID), IsConnected: true}, nil
}

func (s *fakeRelationshipService) RemoveConnection(_ context.Context, actorID, connecteeID string) error {
	s.removed = append(s.removed, actorID+"->"+connecteeID)
	return nil
}

func (s *fakeRelationshipService) GetConnection(_ context.Context, connectorID, connecteeID string) (*models.Connection, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Connection{ID: models.ConnectionID(connectorID, connecteeID)}, nil
}

func (s *fakeRelationshipService) GetConnections(_ context.Context, _ string, connType models.ConnectionType, limit int32, cursor string) (*models.ConnectionPage, error) {
	s.lastType = connType
	s.lastLimit = limit
	s.lastCursor = cursor
	return &models.ConnectionPage{Items: []models.ConnectionEntry{}}, nil
}

func routerFor(svc *fakeRelationshipService, actorID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &usermodels.AuthUser{ID: actorID})
	})

	v1 := router.Group("/api/v1")
	NewRelationshipHandler(svc).RegisterRoutes(v1)
	return router
}

func do(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestFollowRoute(t *testing.T) {
	svc := &fakeRelationshipService{}
	router := routerFor(svc, "alice")

	w := do(router, "POST", "/api/v1/users/alice/following/bob")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"alice->bob"}, svc.follows)
}

func TestFollowRouteForbiddenForOtherUser(t *testing.T) {
	svc := &fakeRelationshipService{}
	router := routerFor(svc, "mallory")

	w := do(router, "POST", "/api/v1/users/alice/following/bob")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.follows)

	var response middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, errors.ErrCodeAuthorization, response.Error.Code)
}

func TestConnectionRoutes(t *testing.T) {
	svc := &fakeRelationshipService{}
	router := routerFor(svc, "alice")

	w := do(router, "POST", "/api/v1/users/alice/connections/bob")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(router, "PATCH", "/api/v1/users/alice/connections/bob")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, "DELETE", "/api/v1/users/alice/connections/bob")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"alice->bob"}, svc.removed)
}

func TestMutatingConnectionRoutesRequireOwnership(t *testing.T) {
	svc := &fakeRelationshipService{}
	router := routerFor(svc, "mallory")

	for _, method := range []string{"POST", "PATCH", "DELETE"} {
		w := do(router, method, "/api/v1/users/alice/connections/bob")
		assert.Equal(t, http.StatusForbidden, w.Code, method)
	}
	assert.Empty(t, svc.removed)
}

func TestGetConnectionsRoute(t *testing.T) {
	svc := &fakeRelationshipService{}
	router := routerFor(svc, "alice")

	w := do(router, "GET", "/api/v1/users/alice/connections?connectionType=pending&limit=5&cursor=abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ConnectionTypePending, svc.lastType)
	assert.Equal(t, int32(5), svc.lastLimit)
	assert.Equal(t, "abc", svc.lastCursor)
}

func TestGetConnectionsRouteRejectsBadParams(t *testing.T) {
	svc := &fakeRelationshipService{}
	router := routerFor(svc, "alice")

	w := do(router, "GET", "/api/v1/users/alice/connections?connectionType=friends")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, "GET", "/api/v1/users/alice/connections?limit=many")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetConnectionRoute(t *testing.T) {
	svc := &fakeRelationshipService{getErr: errors.NewResourceNotFoundError(errors.MsgResourceNotFound)}
	router := routerFor(svc, "alice")

	w := do(router, "GET", "/api/v1/users/alice/connections/bob")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
