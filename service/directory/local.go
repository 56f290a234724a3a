package directory

import (
	"context"
	"sync"

	errs "PPresence/tools/errs"
	"PPresence/tools/security"
)

// LocalDirectory verifies HMAC JWTs in-process. Used in dev deployments
// and tests where no external auth service exists.
type LocalDirectory struct {
	opts security.Options

	mu     sync.RWMutex
	tokens map[string]string // user -> push token
}

func NewLocalDirectory(secret []byte) *LocalDirectory {
	return &LocalDirectory{
		opts:   security.DefaultOptions(secret),
		tokens: make(map[string]string),
	}
}

func (d *LocalDirectory) Validate(_ context.Context, userID, token string) (*UserRecord, error) {
	claims, err := security.Verify(d.opts, token)
	if err != nil {
		return nil, errs.ErrAuth.WithDetail("token verify: " + err.Error())
	}
	if sub := claims.Subject(); sub != userID {
		return nil, errs.ErrAuth.WithDetail("token subject mismatch")
	}
	return &UserRecord{UserID: userID, PushToken: d.pushToken(userID)}, nil
}

func (d *LocalDirectory) PushToken(_ context.Context, userID string) (string, error) {
	return d.pushToken(userID), nil
}

// SetPushToken registers a push token for a user.
func (d *LocalDirectory) SetPushToken(userID, token string) {
	d.mu.Lock()
	d.tokens[userID] = token
	d.mu.Unlock()
}

// IssueToken mints a token for userID, for dev tooling and tests.
func (d *LocalDirectory) IssueToken(userID string) (string, error) {
	tok, _, err := security.Generate(d.opts, userID, nil)
	return tok, err
}

func (d *LocalDirectory) pushToken(userID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tokens[userID]
}
