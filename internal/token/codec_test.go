package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"go-admin-console/internal/model"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("remote-secret"))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("decodes claims without knowing the signing key", func(t *testing.T) {
		raw := sign(t, jwt.MapClaims{
			"sub":  "42",
			"name": "Asha",
			"role": "admin",
			"iat":  now.Unix(),
			"exp":  now.Add(time.Hour).Unix(),
		})

		claims, err := Decode(raw)
		require.NoError(t, err)
		require.Equal(t, "42", claims.Subject)
		require.Equal(t, "Asha", claims.Name)
		require.Equal(t, "admin", claims.Role)
		require.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt)
		require.False(t, claims.Expired(now))
	})

	t.Run("numeric id claim becomes the subject", func(t *testing.T) {
		raw := sign(t, jwt.MapClaims{"id": 7, "exp": now.Add(time.Minute).Unix()})

		claims, err := Decode(raw)
		require.NoError(t, err)
		require.Equal(t, "7", claims.Subject)
	})

	t.Run("past expiry is reported as expired", func(t *testing.T) {
		raw := sign(t, jwt.MapClaims{"sub": "1", "exp": now.Add(-time.Minute).Unix()})

		claims, err := Decode(raw)
		require.NoError(t, err)
		require.True(t, claims.Expired(now))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "not-a-jwt", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig"} {
			_, err := Decode(raw)
			require.ErrorIs(t, err, model.ErrMalformedCredential, raw)
		}
	})

	t.Run("rejects tokens without exp", func(t *testing.T) {
		raw := sign(t, jwt.MapClaims{"sub": "1"})

		_, err := Decode(raw)
		require.ErrorIs(t, err, model.ErrMalformedCredential)
	})
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	require.Empty(t, Fingerprint(""))
	require.Len(t, Fingerprint("T1"), 16)
	require.Equal(t, Fingerprint("T1"), Fingerprint("T1"))
	require.NotEqual(t, Fingerprint("T1"), Fingerprint("T2"))
}
