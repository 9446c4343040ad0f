package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pronet-backend/internal/common/errors"
	"pronet-backend/internal/common/middleware"
	"pronet-backend/internal/features/relationship/models"
	"pronet-backend/internal/features/relationship/service"
)

type RelationshipHandler struct {
	service service.RelationshipService
}

func NewRelationshipHandler(service service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{service: service}
}

func (h *RelationshipHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users/:user_id")
	{
		users.POST("/following/:followee_id", h.follow)
		users.DELETE("/following/:followee_id", h.unfollow)

		users.POST("/connections/:connectee_id", h.requestConnection)
		users.PATCH("/connections/:connectee_id", h.confirmConnection)
		users.DELETE("/connections/:connectee_id", h.deleteConnection)
		users.GET("/connections/:connectee_id", h.getConnection)
		users.GET("/connections", h.getConnections)
	}
}

// @Summary Follow a user
// @Tags relationships
// @Produce json
// @Param user_id path string true "Acting user id"
// @Param followee_id path string true "User to follow"
// @Success 200 {object} models.User "Refreshed acting user"
// @Router /users/{user_id}/following/{followee_id} [post]
func (h *RelationshipHandler) follow(c *gin.Context) {
	actorID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	user, err := h.service.Follow(c.Request.Context(), actorID, c.Param("followee_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Unfollow a user
// @Tags relationships
// @Produce json
// @Router /users/{user_id}/following/{followee_id} [delete]
func (h *RelationshipHandler) unfollow(c *gin.Context) {
	actorID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	user, err := h.service.Unfollow(c.Request.Context(), actorID, c.Param("followee_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Request a connection
// @Tags relationships
// @Produce json
// @Router /users/{user_id}/connections/{connectee_id} [post]
func (h *RelationshipHandler) requestConnection(c *gin.Context) {
	actorID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	connection, err := h.service.RequestConnection(c.Request.Context(), actorID, c.Param("connectee_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, connection)
}

// @Summary Confirm a pending connection request
// @Tags relationships
// @Produce json
// @Router /users/{user_id}/connections/{connectee_id} [patch]
func (h *RelationshipHandler) confirmConnection(c *gin.Context) {
	actorID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	connection, err := h.service.ConfirmConnection(c.Request.Context(), actorID, c.Param("connectee_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, connection)
}

// @Summary Delete a connection or withdraw a pending request
// @Tags relationships
// @Produce json
// @Router /users/{user_id}/connections/{connectee_id} [delete]
func (h *RelationshipHandler) deleteConnection(c *gin.Context) {
	actorID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	if err := h.service.RemoveConnection(c.Request.Context(), actorID, c.Param("connectee_id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Get one connection edge
// @Tags relationships
// @Produce json
// @Router /users/{user_id}/connections/{connectee_id} [get]
func (h *RelationshipHandler) getConnection(c *gin.Context) {
	connection, err := h.service.GetConnection(c.Request.Context(), c.Param("user_id"), c.Param("connectee_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, connection)
}

// @Summary List connections
// @Tags relationships
// @Produce json
// @Param connectionType query string false "connected, pending, sent or all"
// @Param limit query int false "Page size"
// @Param cursor query string false "Opaque pagination cursor"
// @Router /users/{user_id}/connections [get]
func (h *RelationshipHandler) getConnections(c *gin.Context) {
	connType, err := models.ParseConnectionType(c.Query("connectionType"))
	if err != nil {
		c.Error(err)
		return
	}

	var limit int32
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 0 {
			c.Error(errors.NewInvalidError("limit is not valid"))
			return
		}
		limit = int32(parsed)
	}

	page, err := h.service.GetConnections(c.Request.Context(), c.Param("user_id"), connType, limit, c.Query("cursor"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// requireOwner enforces that the authenticated caller is the user named in the
// path. Mutations on someone else's edges are forbidden.
func (h *RelationshipHandler) requireOwner(c *gin.Context) (string, bool) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.Error(errors.New(errors.ErrCodeAuthentication, errors.MsgMissingAccessToken))
		return "", false
	}
	if actor.ID != c.Param("user_id") {
		c.Error(errors.NewAuthorizationError(errors.MsgForbiddenAccess))
		return "", false
	}
	return actor.ID, true
}
