package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPPushProvider posts notifications to an HTTP push gateway.
type HTTPPushProvider struct {
	endpoint string
	hc       *http.Client
}

func NewHTTPPushProvider(endpoint string, timeout time.Duration) *HTTPPushProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPPushProvider{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: timeout},
	}
}

type pushRequest struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type pushResponse struct {
	MessageID string `json:"message_id"`
}

func (p *HTTPPushProvider) Send(ctx context.Context, deviceToken, title, body string, data map[string]string) (string, error) {
	payload, err := json.Marshal(pushRequest{Token: deviceToken, Title: title, Body: body, Data: data})
	if err != nil {
		return "", errors.Wrap(err, "marshal push request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build push request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "push provider call")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("push provider status %d", resp.StatusCode)
	}

	out := pushResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode push response")
	}
	return out.MessageID, nil
}
