package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateJoinToken(t *testing.T) {
	token, err := GenerateJoinToken("client-42", false, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJoinToken returned error: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateJoinToken returned empty token")
	}

	clientID, valid, isAdmin := ValidateJoinToken(token)
	if !valid {
		t.Fatal("expected token to be valid")
	}
	if clientID != "client-42" {
		t.Errorf("clientID = %q, want %q", clientID, "client-42")
	}
	if isAdmin {
		t.Error("expected isAdmin = false")
	}
}

func TestGenerateJoinTokenAdmin(t *testing.T) {
	token, err := GenerateJoinToken("admin-1", true, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJoinToken returned error: %v", err)
	}

	clientID, valid, isAdmin := ValidateJoinToken(token)
	if !valid || clientID != "admin-1" {
		t.Fatalf("unexpected validation result: clientID=%q valid=%v", clientID, valid)
	}
	if !isAdmin {
		t.Error("expected isAdmin = true")
	}
}

func TestValidateJoinTokenExpired(t *testing.T) {
	token, err := GenerateJoinToken("client-1", false, -time.Hour)
	if err != nil {
		t.Fatalf("GenerateJoinToken returned error: %v", err)
	}

	_, valid, _ := ValidateJoinToken(token)
	if valid {
		t.Error("expected expired token to be invalid")
	}
}

func TestValidateJoinTokenGarbage(t *testing.T) {
	_, valid, _ := ValidateJoinToken("not-a-real-token")
	if valid {
		t.Error("expected garbage token to be invalid")
	}
}

func TestSetJWTSecretRejectsShortKey(t *testing.T) {
	if err := SetJWTSecret("dG9vc2hvcnQ="); err == nil {
		t.Error("expected SetJWTSecret to reject a key shorter than 32 bytes")
	}
}

func TestSetJWTSecretRoundTrip(t *testing.T) {
	secret := GenerateSecureSecret()
	if err := SetJWTSecret(secret); err != nil {
		t.Fatalf("SetJWTSecret returned error: %v", err)
	}

	token, err := GenerateJoinToken("client-7", false, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJoinToken returned error: %v", err)
	}
	clientID, valid, _ := ValidateJoinToken(token)
	if !valid || clientID != "client-7" {
		t.Fatalf("round trip failed: clientID=%q valid=%v", clientID, valid)
	}
}

func TestMockJoinTokenRoundTrip(t *testing.T) {
	token := GenerateMockJoinToken("client-9", true)

	clientID, valid, isAdmin := ValidateMockJoinToken(token)
	if !valid {
		t.Fatal("expected mock token to be valid")
	}
	if clientID != "client-9" {
		t.Errorf("clientID = %q, want %q", clientID, "client-9")
	}
	if !isAdmin {
		t.Error("expected isAdmin = true")
	}
}

func TestMockJoinTokenFallbackParsing(t *testing.T) {
	clientID, valid, isAdmin := ValidateMockJoinToken("token-unseen-client")
	if !valid {
		t.Fatal("expected fallback-parsed token to be valid")
	}
	if clientID != "unseen-client" {
		t.Errorf("clientID = %q, want %q", clientID, "unseen-client")
	}
	if isAdmin {
		t.Error("expected fallback-parsed token to default to non-admin")
	}
}
