package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT secret key - in production should be loaded from environment variable
var jwtSecret []byte

func init() {
	// Generate a secure random secret key
	jwtSecret = make([]byte, 32)
	if _, err := rand.Read(jwtSecret); err != nil {
		// Fallback to a hardcoded key only for development
		jwtSecret = []byte("development-secret-key-change-in-production")
	}
}

// JoinClaims is embedded in the token a client presents to join a running
// game instance: who they are and whether they hold admin/observer rights
// over the admin HTTP surface.
type JoinClaims struct {
	ClientID string `json:"client_id"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// GenerateJoinToken creates a signed token authorizing clientID to connect.
func GenerateJoinToken(clientID string, isAdmin bool, ttl time.Duration) (string, error) {
	claims := &JoinClaims{
		ClientID: clientID,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "netcode-core",
			Subject:   clientID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateJoinToken checks token validity and returns the client identity it
// authorizes.
func ValidateJoinToken(tokenString string) (clientID string, isValid bool, isAdmin bool) {
	claims := &JoinClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil || !token.Valid {
		return "", false, false
	}

	return claims.ClientID, true, claims.IsAdmin
}

// GenerateSecureSecret generates a new secure secret key, base64-encoded
// for storage in an env var or config file.
func GenerateSecureSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// SetJWTSecret installs a custom signing secret (for production use),
// decoding it the same way GenerateSecureSecret encodes one.
func SetJWTSecret(secret string) error {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return err
	}
	if len(decoded) < 32 {
		return errors.New("secret key must be at least 32 bytes")
	}
	jwtSecret = decoded
	return nil
}
