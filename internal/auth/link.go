package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
)

// StateTTL bounds how long a pending linking attempt stays valid. Expiry is
// the only cancellation mechanism for an abandoned attempt.
const StateTTL = 600 * time.Second

// stateTokenBytes is the entropy of the opaque state parameter.
const stateTokenBytes = 24

// StateRecord binds a pending authorization attempt to its initiating context.
//
// One-time: consumed (deleted) on first read, before the code exchange runs,
// regardless of whether that exchange succeeds.
type StateRecord struct {
	Principal string `json:"principal"`
	ChatID    int64  `json:"chat_id"`
	CreatedAt int64  `json:"created_at"` // epoch milliseconds
}

// BeginLink starts the linking handshake for a principal and returns the
// provider authorization URL the user must visit.
func (m *Manager) BeginLink(ctx context.Context, principal string, chatID int64) (string, error) {
	state := shared.GenerateStateToken(stateTokenBytes)

	record := StateRecord{
		Principal: principal,
		ChatID:    chatID,
		CreatedAt: m.now().UnixMilli(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state record: %w", err)
	}

	if err := m.kv.SetTTL(ctx, store.OAuthStateKey(state), string(data), StateTTL); err != nil {
		return "", fmt.Errorf("failed to store state record: %w", err)
	}

	return m.config.AuthCodeURL(state), nil
}

// CompleteLink consumes the state record and exchanges the authorization code
// for a token pair, persisting a credential for the recovered principal.
//
// The record is deleted on first read, independent of the exchange outcome;
// an unknown, expired, or already-consumed state fails with
// [shared.ErrInvalidState].
func (m *Manager) CompleteLink(ctx context.Context, state, code string) (*StateRecord, error) {
	key := store.OAuthStateKey(state)

	value, ok, err := m.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read state record: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w", shared.ErrInvalidState)
	}

	// Close the replay window before anything that can fail.
	if err := m.kv.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to consume state record: %w", err)
	}

	var record StateRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, fmt.Errorf("%w: corrupt record", shared.ErrInvalidState)
	}

	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return &record, fmt.Errorf("code exchange failed: %w", err)
	}

	cred := &Credential{
		Principal:    record.Principal,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.UnixMilli(),
		UpdatedAt:    m.now().UnixMilli(),
	}
	if err := saveCredential(ctx, m.kv, cred); err != nil {
		return &record, err
	}

	m.logger.Info("linked credential", "principal", record.Principal)
	return &record, nil
}
