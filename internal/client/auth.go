package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lox/gammond/internal/store"
)

// AuthResult is the token and profile returned by register and login.
type AuthResult struct {
	Token   string         `json:"token"`
	Profile *store.Profile `json:"profile"`
}

// apiError mirrors the REST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// Login exchanges credentials for a token at serverURL.
func Login(serverURL, username, password string) (*AuthResult, error) {
	return postAuth(serverURL, "/api/login", username, password)
}

// Register creates an account at serverURL and returns its first token.
func Register(serverURL, username, password string) (*AuthResult, error) {
	return postAuth(serverURL, "/api/register", username, password)
}

func postAuth(serverURL, path, username, password string) (*AuthResult, error) {
	endpoint, err := url.JoinPath(serverURL, path)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	var result AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("server returned no token")
	}
	return &result, nil
}
