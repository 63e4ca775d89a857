package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PlanForgeHQ/PlanForge/internal/pkg/env"
)

// AuthProviderClient talks to the external authentication provider's
// admin API. The provider is the system of record for login identities;
// this client only guarantees an account exists for a billing email.
type AuthProviderClient struct {
	BaseURL    string
	ServiceKey string

	HTTPClient *http.Client
}

func NewAuthProviderClientFromEnv() *AuthProviderClient {
	return &AuthProviderClient{
		BaseURL:    strings.TrimRight(env.GetEnv("AUTH_PROVIDER_URL", ""), "/"),
		ServiceKey: strings.TrimSpace(env.GetEnv("AUTH_PROVIDER_SERVICE_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// EnsureAccount creates an auth account for the email if none exists.
// An "already exists" answer from the provider is success: some earlier
// run or a parallel signup path got there first, which is exactly the
// state this call wants.
func (c *AuthProviderClient) EnsureAccount(ctx context.Context, email, displayName, initialPassword string) error {
	if strings.TrimSpace(c.BaseURL) == "" || strings.TrimSpace(c.ServiceKey) == "" {
		return errors.New("AUTH_PROVIDER_URL/AUTH_PROVIDER_SERVICE_KEY are not configured")
	}
	addr := strings.TrimSpace(email)
	if addr == "" {
		return errors.New("email is required")
	}

	payload := map[string]interface{}{
		"email":         addr,
		"password":      initialPassword,
		"email_confirm": true,
		"user_metadata": map[string]string{"name": strings.TrimSpace(displayName)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth/v1/admin/users", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if isAlreadyExists(resp.StatusCode, raw) {
		return nil
	}
	return fmt.Errorf("auth account creation failed: status=%d body=%s", resp.StatusCode, string(raw))
}

func isAlreadyExists(statusCode int, body []byte) bool {
	if statusCode == http.StatusConflict {
		return true
	}
	// Some providers answer 400/422 with an error code instead of 409.
	if statusCode != http.StatusBadRequest && statusCode != http.StatusUnprocessableEntity {
		return false
	}
	var parsed struct {
		ErrorCode string `json:"error_code"`
		Msg       string `json:"msg"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false
	}
	if parsed.ErrorCode == "email_exists" || parsed.ErrorCode == "user_already_exists" {
		return true
	}
	return strings.Contains(strings.ToLower(parsed.Msg), "already") &&
		strings.Contains(strings.ToLower(parsed.Msg), "registered")
}
