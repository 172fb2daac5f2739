package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicdeclares/amplify/internal/models"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 1)
	artistID := uuid.New()
	user := &models.User{ID: uuid.New(), Email: "a@example.com", Role: models.RoleArtist, ArtistID: &artistID}

	token, err := svc.Generate(user)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "artist", claims.Role)
	require.NotNil(t, claims.ArtistID)
	assert.Equal(t, artistID, *claims.ArtistID)
}

func TestJWT_AdminHasNoArtist(t *testing.T) {
	svc := NewJWTService("secret", 1)
	token, err := svc.Generate(&models.User{ID: uuid.New(), Email: "root@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ArtistID)
}

func TestJWT_Rejects(t *testing.T) {
	svc := NewJWTService("secret", 1)
	user := &models.User{ID: uuid.New(), Email: "a@example.com", Role: models.RoleAdmin}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTService("other", 1).Generate(user)
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewJWTService("secret", 1)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := old.Generate(user)
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("artist without artist id", func(t *testing.T) {
		token, err := svc.Generate(&models.User{ID: uuid.New(), Role: models.RoleArtist})
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
