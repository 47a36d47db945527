//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/2beens/prtracker/internal/auth"
)

const testPassword = "testpass-1234"

// user is a registered and logged in account used to drive the API.
type user struct {
	ID    string
	Email string
	Token string
}

func newEmail() string {
	return strings.ToLower(fmt.Sprintf("%s+%d@prtracker.test", gofakeit.Username(), gofakeit.Number(1000, 999999)))
}

func registerAndLogin(ctx context.Context, t *testing.T) *user {
	t.Helper()

	email := newEmail()
	creds := auth.Credentials{Email: email, Password: testPassword}

	resp := doRequest(ctx, t, http.MethodPost, "/a/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	token, userID := doLogin(ctx, t, creds)
	return &user{
		ID:    userID,
		Email: email,
		Token: token,
	}
}

func doLogin(ctx context.Context, t *testing.T, creds auth.Credentials) (string, string) {
	t.Helper()

	resp := doRequest(ctx, t, http.MethodPost, "/a/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp auth.LoginResponse
	decodeBody(t, resp, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	require.NotEmpty(t, loginResp.UserID)

	return loginResp.Token, loginResp.UserID
}

// doRequest sends body as JSON, if not nil, and attaches the session token, if set.
func doRequest(ctx context.Context, t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		reqJson, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(reqJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBytes, v), string(respBytes))
}
