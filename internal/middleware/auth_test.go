package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/dailyfit/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	hash, err := pkg.HashToken("s3cr3t", bcrypt.MinCost)
	require.NoError(t, err)
	authMiddleware := NewAuthMiddlewareHandler(hash)

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		bearer             string
		expectedStatusCode int
	}{
		{
			name:               "ReadWithoutToken",
			path:               "/tracker",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "PreflightWithoutToken",
			path:               "/tracker/reset",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MutationWithoutToken",
			path:               "/tracker/reset",
			method:             "POST",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "MutationWithValidToken",
			path:               "/tracker/exercises/1/toggle",
			method:             "POST",
			token:              "s3cr3t",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MutationWithValidBearerToken",
			path:               "/tracker/exercises/1/toggle",
			method:             "POST",
			bearer:             "s3cr3t",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MutationWithInvalidToken",
			path:               "/tracker/reset",
			method:             "POST",
			token:              "guess",
			expectedStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			require.NoError(t, err)
			if tc.token != "" {
				req.Header.Add(AuthTokenHeader, tc.token)
			}
			if tc.bearer != "" {
				req.Header.Add("Authorization", "Bearer "+tc.bearer)
			}

			rr := httptest.NewRecorder()
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}

func TestAuthMiddlewareHandler_NoHashConfigured(t *testing.T) {
	authMiddleware := NewAuthMiddlewareHandler("")

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest("POST", "/tracker/reset", nil)
	rr := httptest.NewRecorder()
	authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
}
