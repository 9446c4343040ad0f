package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pronet-backend/internal/common/errors"
)

// UserInfo is the identity resolved for a bearer token.
type UserInfo struct {
	Sub       string `json:"sub"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Birthdate string `json:"birthdate"`
}

// Verifier resolves an access token to the authenticated caller's identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*UserInfo, error)
}

// UserInfoVerifier validates tokens against an OIDC userinfo endpoint. The
// identity provider owns signature verification; a non-200 response means the
// token is not valid.
type UserInfoVerifier struct {
	url    string
	client *http.Client
}

func NewUserInfoVerifier(url string) *UserInfoVerifier {
	return &UserInfoVerifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *UserInfoVerifier) Verify(ctx context.Context, token string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return nil, errors.NewThirdPartyError("userinfo request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.NewThirdPartyError("userinfo request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.New(errors.ErrCodeAuthentication, errors.MsgInvalidAccessToken)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewThirdPartyError("userinfo request",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.NewThirdPartyError("userinfo decode", err)
	}
	if info.Sub == "" {
		return nil, errors.New(errors.ErrCodeAuthentication, errors.MsgInvalidAccessToken)
	}
	return &info, nil
}
