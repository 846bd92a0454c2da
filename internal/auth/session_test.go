// internal/auth/session_test.go
package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	Init()

	id := uuid.New()
	token, err := CreateJWT(id.String())
	require.NoError(t, err)

	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), sub)

	_, err = AuthenticateJWT("not.a.token")
	assert.Error(t, err)

	_, err = AuthenticateJWT(token + "tampered")
	assert.Error(t, err)
}

func TestEnsureGuestMintsAndRecognizes(t *testing.T) {
	Init()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	id, err := EnsureGuest(w, r)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// A returning caller with the minted cookie keeps the same id.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	again, err := EnsureGuest(w2, r2)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Empty(t, w2.Result().Cookies(), "no new session is minted")

	// A garbage cookie silently rolls over to a fresh session.
	r3 := httptest.NewRequest(http.MethodGet, "/", nil)
	r3.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	w3 := httptest.NewRecorder()
	fresh, err := EnsureGuest(w3, r3)
	require.NoError(t, err)
	assert.NotEqual(t, id, fresh)
	assert.Len(t, w3.Result().Cookies(), 1)
}
