//go:build integration

package test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/prtracker/internal/auth"
)

func (s *IntegrationTestSuite) TestLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	email := newEmail()
	resp := doRequest(ctx, t, http.MethodPost, "/a/register", "", auth.Credentials{Email: email, Password: testPassword})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var account auth.Account
	decodeBody(t, resp, &account)
	assert.Equal(t, email, account.Email)
	assert.False(t, account.Onboarded)

	cases := map[string]struct {
		creds              auth.Credentials
		expectedStatusCode int
	}{
		"good creds": {
			creds:              auth.Credentials{Email: email, Password: testPassword},
			expectedStatusCode: http.StatusOK,
		},
		"email is case insensitive": {
			creds:              auth.Credentials{Email: strings.ToUpper(email), Password: testPassword},
			expectedStatusCode: http.StatusOK,
		},
		"bad password": {
			creds:              auth.Credentials{Email: email, Password: "bad-password"},
			expectedStatusCode: http.StatusUnauthorized,
		},
		"unknown email": {
			creds:              auth.Credentials{Email: newEmail(), Password: testPassword},
			expectedStatusCode: http.StatusUnauthorized,
		},
		"empty password": {
			creds:              auth.Credentials{Email: email},
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			resp := doRequest(ctx, t, http.MethodPost, "/a/login", "", tc.creds)
			defer resp.Body.Close()
			require.Equal(t, tc.expectedStatusCode, resp.StatusCode)
		})
	}

	t.Run("register twice", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodPost, "/a/register", "", auth.Credentials{Email: email, Password: testPassword})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("login, me, then logout", func(t *testing.T) {
		token, userID := doLogin(ctx, t, auth.Credentials{Email: email, Password: testPassword})

		resp := doRequest(ctx, t, http.MethodGet, "/a/me", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var me auth.Account
		decodeBody(t, resp, &me)
		assert.Equal(t, userID, me.ID)

		resp = doRequest(ctx, t, http.MethodPost, "/a/logout", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "logged-out", string(respBytes))

		// session is gone
		resp = doRequest(ctx, t, http.MethodGet, "/a/me", token, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
