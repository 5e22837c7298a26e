package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func fakeGoogle(t *testing.T, userinfoStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if userinfoStatus != http.StatusOK {
			w.WriteHeader(userinfoStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(Profile{ID: "g-1", Email: " Alice@Example.COM ", VerifiedEmail: true, Name: "Alice"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testGoogle(srv *httptest.Server) *Google {
	g := NewGoogle("client", "secret", "http://localhost/callback")
	g.cfg.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	g.userInfoURL = srv.URL + "/userinfo"
	return g
}

func TestGoogle_Exchange(t *testing.T) {
	g := testGoogle(fakeGoogle(t, http.StatusOK))

	p, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "g-1", p.ID)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.True(t, p.VerifiedEmail)
}

func TestGoogle_ExchangeErrors(t *testing.T) {
	_, err := testGoogle(fakeGoogle(t, http.StatusOK)).Exchange(context.Background(), "bad-code")
	assert.ErrorContains(t, err, "code exchange")

	_, err = testGoogle(fakeGoogle(t, http.StatusInternalServerError)).Exchange(context.Background(), "good-code")
	assert.ErrorContains(t, err, "status 500")
}

func TestGoogle_AuthURLCarriesState(t *testing.T) {
	state := NewState()
	assert.Len(t, state, 32)

	u, err := url.Parse(NewGoogle("client", "secret", "http://localhost/cb").AuthURL(state))
	require.NoError(t, err)
	assert.Equal(t, state, u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
}
