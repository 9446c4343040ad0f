package middleware

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
	"pronet-backend/internal/features/user/models"
	"pronet-backend/internal/platform/identity"
)

type fakeVerifier struct {
	info *identity.UserInfo
	err  error
}

func (v *fakeVerifier) Verify(_ context.Context, _ string) (*identity.UserInfo, error) {
	return v.info, v.err
}

type fakeUserService struct {
	user *models.AuthUser
}

func (s *fakeUserService) GetOrCreateByIdentity(_ context.Context, info *identity.UserInfo) (*models.AuthUser, error) {
	if s.user != nil {
		return s.user, nil
	}
	return &models.AuthUser{ID: info.Sub, Email: info.Email, Name: info.Name}, nil
}

func (s *fakeUserService) GetUser(context.Context, string) (*models.User, error) {
	panic("not used")
}

func (s *fakeUserService) UpdateProfile(context.Context, string, *models.UserUpdate) (*models.User, error) {
	panic("not used")
}

func (s *fakeUserService) EndorseSkill(context.Context, string, string, string) (*models.User, error) {
	panic("not used")
}

func (s *fakeUserService) UnendorseSkill(context.Context, string, string, string) (*models.User, error) {
	panic("not used")
}

func (s *fakeUserService) SignedUploadURL(context.Context, string, string) (string, error) {
	panic("not used")
}

func authRouter(verifier identity.Verifier, users *fakeUserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.Use(ErrorHandler())
	router.Use(Auth(verifier, nil, users))
	router.GET("/whoami", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, user)
	})
	return router
}

func TestAuthMissingToken(t *testing.T) {
	router := authRouter(&fakeVerifier{}, &fakeUserService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, errors.ErrCodeAuthentication, response.Error.Code)
	assert.Equal(t, errors.MsgMissingAccessToken, response.Error.Message)
}

func TestAuthMalformedHeader(t *testing.T) {
	router := authRouter(&fakeVerifier{}, &fakeUserService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthInvalidToken(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New(errors.ErrCodeAuthentication, errors.MsgInvalidAccessToken)}
	router := authRouter(verifier, &fakeUserService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthResolvesUser(t *testing.T) {
	verifier := &fakeVerifier{info: &identity.UserInfo{Sub: "sub-1", Email: "alice@example.com", Name: "Alice"}}
	router := authRouter(verifier, &fakeUserService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var user models.AuthUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "sub-1", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
}
