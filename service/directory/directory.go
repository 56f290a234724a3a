// Package directory is the port to the external user directory: token
// validation at join time and push-registration token lookup for the
// notification dispatcher.
package directory

import (
	"context"
)

type UserRecord struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	PushToken   string `json:"pushToken,omitempty"`
}

type Directory interface {
	// Validate resolves userID+token against the directory. Auth failures
	// return errs.ErrAuth-coded errors; transport failures are wrapped
	// collaborator errors.
	Validate(ctx context.Context, userID, token string) (*UserRecord, error)

	// PushToken returns the user's push-registration token, empty string
	// (no error) when the user has none registered.
	PushToken(ctx context.Context, userID string) (string, error)
}
