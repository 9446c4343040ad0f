package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pronet-backend/internal/common/errors"
	"pronet-backend/internal/common/middleware"
	"pronet-backend/internal/features/user/models"
	"pronet-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/:user_id", h.getUser)
		users.PATCH("/:user_id", h.updateProfile)
		users.GET("/:user_id/signed-url", h.signedURL)
		users.PATCH("/:user_id/skills/endorse", h.endorseSkill)
		users.DELETE("/:user_id/skills/endorse", h.unendorseSkill)
	}
}

// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param user_id path string true "User id"
// @Success 200 {object} models.User
// @Router /users/{user_id} [get]
func (h *UserHandler) getUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Router /users/{user_id} [patch]
func (h *UserHandler) updateProfile(c *gin.Context) {
	actorID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	var update models.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.Error(errors.NewInvalidError("request body is not valid"))
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), actorID, &update)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Get a presigned upload URL for a profile image
// @Tags users
// @Produce json
// @Param imageType query string true "display_picture or background_image"
// @Router /users/{user_id}/signed-url [get]
func (h *UserHandler) signedURL(c *gin.Context) {
	actorID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	url, err := h.service.SignedUploadURL(c.Request.Context(), actorID, c.Query("imageType"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signedUrl": url})
}

type endorseRequest struct {
	Skill string `json:"skill" binding:"required"`
}

// @Summary Endorse a skill on another user's profile
// @Tags users
// @Accept json
// @Produce json
// @Router /users/{user_id}/skills/endorse [patch]
func (h *UserHandler) endorseSkill(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.Error(errors.New(errors.ErrCodeAuthentication, errors.MsgMissingAccessToken))
		return
	}

	var req endorseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.New(errors.ErrCodeMissingField, "skill is required"))
		return
	}

	user, err := h.service.EndorseSkill(c.Request.Context(), actor.ID, c.Param("user_id"), req.Skill)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Withdraw a skill endorsement
// @Tags users
// @Accept json
// @Produce json
// @Router /users/{user_id}/skills/endorse [delete]
func (h *UserHandler) unendorseSkill(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.Error(errors.New(errors.ErrCodeAuthentication, errors.MsgMissingAccessToken))
		return
	}

	var req endorseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.New(errors.ErrCodeMissingField, "skill is required"))
		return
	}

	user, err := h.service.UnendorseSkill(c.Request.Context(), actor.ID, c.Param("user_id"), req.Skill)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) requireOwner(c *gin.Context) (string, bool) {
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
