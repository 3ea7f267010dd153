// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dghubble/sling"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
)

// Payload is what a device receives for a match.
type Payload struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Data  PayloadData `json:"data"`
	Sound string      `json:"sound,omitempty"`
	Badge int         `json:"badge,omitempty"`
}

// PayloadData lets the client deep-link into the matched session.
type PayloadData struct {
	SessionID string `json:"sessionId"`
	OptionID  string `json:"optionId"`
}

// Transport delivers one payload to one device. Implementations must
// return an error matching ErrUnregistered or ErrBadToken when the token
// will never work again; any other error is treated as transient.
type Transport interface {
	Send(ctx context.Context, token string, p Payload) error
}

var (
	ErrUnregistered = errors.New("device token unregistered")
	ErrBadToken     = errors.New("bad device token")
)

// IsPermanent reports whether err means the token should be discarded.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnregistered) || errors.Is(err, ErrBadToken)
}

// GatewayTransport posts payloads to an HTTP push gateway that fronts
// APNs/FCM. Status codes follow APNs: 410 for an unregistered device and
// 400 with reason BadDeviceToken for a malformed one.
type GatewayTransport struct {
	base *sling.Sling
}

type gatewayRequest struct {
	Token   string  `json:"token"`
	Payload Payload `json:"payload"`
}

type gatewayError struct {
	Reason string `json:"reason"`
}

func NewGatewayTransport(url, apiKey string, timeout time.Duration) *GatewayTransport {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout

	base := sling.New().Client(client).Base(url).Set("Accept", "application/json")
	if apiKey != "" {
		base = base.Set("Authorization", "Bearer "+apiKey)
	}
	return &GatewayTransport{base: base}
}

func (t *GatewayTransport) Send(ctx context.Context, token string, p Payload) error {
	req, err := t.base.New().Post("").BodyJSON(gatewayRequest{Token: token, Payload: p}).Request()
	if err != nil {
		return errors.Wrap(err, "failed to build push request")
	}

	var failure gatewayError
	resp, err := t.base.New().Do(req.WithContext(ctx), nil, &failure)
	if resp == nil {
		return errors.Wrap(err, "push request failed")
	}
	return classify(resp.StatusCode, failure.Reason)
}

func classify(status int, reason string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusGone:
		return errors.Wrapf(ErrUnregistered, "gateway: %s", orStatus(reason, status))
	case status == http.StatusBadRequest && (reason == "BadDeviceToken" || reason == "DeviceTokenNotForTopic"):
		return errors.Wrapf(ErrBadToken, "gateway: %s", reason)
	}
	return errors.Errorf("gateway: %s", orStatus(reason, status))
}

func orStatus(reason string, status int) string {
	if reason != "" {
		return reason
	}
	return http.StatusText(status)
}

// LogTransport only logs payloads. It is used when no gateway is
// configured so the match flow can be exercised end to end in development.
type LogTransport struct{}

func (LogTransport) Send(ctx context.Context, token string, p Payload) error {
	slog.Info("push (log only)",
		"token_suffix", suffix(token),
		"title", p.Title,
		"body", p.Body,
		"session_id", p.Data.SessionID,
		"option_id", p.Data.OptionID,
	)
	return nil
}

func suffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[len(token)-6:]
}
