package auth

import (
	"fmt"
	"strings"
	"sync"
)

// tokenInfo represents stored information about an issued mock token.
// In a real implementation this state would not be required as JWT is self-contained.
type tokenInfo struct {
	ClientID string
	IsAdmin  bool
}

var tokenStore sync.Map // map[string]tokenInfo

// GenerateMockJoinToken creates a deterministic token for clientID and
// remembers it in-memory, for tests that need a stable token without
// signing a real JWT. Token format: "token-<clientID>".
func GenerateMockJoinToken(clientID string, isAdmin bool) string {
	token := fmt.Sprintf("token-%s", clientID)
	tokenStore.Store(token, tokenInfo{ClientID: clientID, IsAdmin: isAdmin})
	return token
}

// ValidateMockJoinToken checks a mock token's validity and returns the
// client identity it authorizes.
func ValidateMockJoinToken(token string) (clientID string, isValid bool, isAdmin bool) {
	if v, ok := tokenStore.Load(token); ok {
		info := v.(tokenInfo)
		return info.ClientID, true, info.IsAdmin
	}

	if strings.HasPrefix(token, "token-") {
		return strings.TrimPrefix(token, "token-"), true, false
	}

	return "", false, false
}
