package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/mixtaper/internal/store"
)

// DefaultPrincipal is the sentinel principal for the bot's own credential.
const DefaultPrincipal = "default"

// expiryBuffer is subtracted from expires_at before any use, so a token about
// to expire mid-request is treated as already expired.
const expiryBuffer = 60 * time.Second

// Credential is one principal's OAuth token pair.
//
// Written only on full refresh/exchange success, never partially; the store's
// last writer wins under concurrent refreshes.
type Credential struct {
	Principal    string `json:"principal"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // epoch milliseconds
	UpdatedAt    int64  `json:"updated_at"` // epoch milliseconds
}

// IsExpired reports whether the credential needs a refresh before use.
//
// True iff now >= expires_at - 60s, boundary included.
func (c *Credential) IsExpired(now time.Time) bool {
	return now.UnixMilli() >= c.ExpiresAt-expiryBuffer.Milliseconds()
}

func loadCredential(ctx context.Context, kv store.KV, principal string) (*Credential, bool, error) {
	value, ok, err := kv.Get(ctx, store.CredentialKey(principal))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load credential: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var cred Credential
	if err := json.Unmarshal([]byte(value), &cred); err != nil {
		return nil, false, fmt.Errorf("corrupt credential for %s: %w", principal, err)
	}
	return &cred, true, nil
}

func saveCredential(ctx context.Context, kv store.KV, cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := kv.Set(ctx, store.CredentialKey(cred.Principal), string(data)); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}
