// services/auth_service_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"thunderbloop/utils"
)

// AuthServiceClient validates access tokens against a remote auth service.
type AuthServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type ValidateResponse struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

func NewAuthServiceClient(baseURL, token string) *AuthServiceClient {
	return &AuthServiceClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// VerifyToken calls /auth/validate on the auth service
func (c *AuthServiceClient) VerifyToken(ctx context.Context, accessToken string) (*Identity, error) {
	url := fmt.Sprintf("%s/auth/validate", c.BaseURL)

	jsonData, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode != http.StatusOK {
		utils.Log.Warnw("🚫 auth service rejected token", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("auth validation failed: %d", resp.StatusCode)
	}

	var out ValidateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.UserID == "" {
		return nil, fmt.Errorf("auth validation returned no user_id")
	}

	return &Identity{UserID: out.UserID, Email: out.Email, Roles: out.Roles}, nil
}
