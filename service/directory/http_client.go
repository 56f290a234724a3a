package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	errs "PPresence/tools/errs"

	"github.com/pkg/errors"
)

// HTTPDirectory validates tokens against an external auth service over
// plain HTTP with JSON bodies.
type HTTPDirectory struct {
	baseURL string
	hc      *http.Client
}

func NewHTTPDirectory(baseURL string, timeout time.Duration) *HTTPDirectory {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPDirectory{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

type validateRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func (d *HTTPDirectory) Validate(ctx context.Context, userID, token string) (*UserRecord, error) {
	body, err := json.Marshal(validateRequest{UserID: userID, Token: token})
	if err != nil {
		return nil, errors.Wrap(err, "marshal validate request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/v1/sessions/validate", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build validate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.hc.Do(req)
	if err != nil {
		return nil, errs.ErrCollaborator.WithDetail("user directory unreachable: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errs.ErrAuth.WithDetail("token rejected for user " + userID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errs.ErrCollaborator.WithDetail(
			fmt.Sprintf("user directory status %d", resp.StatusCode))
	}

	rec := &UserRecord{}
	if err := json.NewDecoder(resp.Body).Decode(rec); err != nil {
		return nil, errors.Wrap(err, "decode user record")
	}
	if rec.UserID == "" {
		rec.UserID = userID
	}
	return rec, nil
}

type pushTokenResponse struct {
	PushToken string `json:"pushToken"`
}

func (d *HTTPDirectory) PushToken(ctx context.Context, userID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+"/v1/users/"+userID+"/push-token", nil)
	if err != nil {
		return "", errors.Wrap(err, "build push-token request")
	}

	resp, err := d.hc.Do(req)
	if err != nil {
		return "", errs.ErrCollaborator.WithDetail("user directory unreachable: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		// No token registered: a no-op for the caller, not an error.
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errs.ErrCollaborator.WithDetail(
			fmt.Sprintf("user directory status %d", resp.StatusCode))
	}

	out := pushTokenResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode push token")
	}
	return out.PushToken, nil
}
