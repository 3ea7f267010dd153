// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/swivo/metrics"
	"github.com/danielhkuo/swivo/models"
)

const (
	MatchTitle   = "Match Found!"
	fallbackBody = "Everyone agreed on an option"

	DefaultSendTimeout = 10 * time.Second
	DefaultConcurrency = 8
)

type RecipientSource interface {
	Recipients(ctx context.Context, sessionID string) ([]models.Recipient, error)
}

type TokenPruner interface {
	ClearDeviceToken(ctx context.Context, userID, token string) (bool, error)
}

type Labeler interface {
	OptionLabel(ctx context.Context, optionID string) (string, error)
}

// DeliveryReport is the outcome of one send.
type DeliveryReport struct {
	UserID           string `json:"user_id"`
	Token            string `json:"-"`
	Delivered        bool   `json:"delivered"`
	PermanentFailure bool   `json:"permanent_failure"`
	Reason           string `json:"reason,omitempty"`
}

// Report aggregates one match fan-out.
type Report struct {
	SessionID   string           `json:"session_id"`
	OptionID    string           `json:"option_id"`
	Sent        int              `json:"sent"`
	Failed      int              `json:"failed"`
	Invalidated int              `json:"invalidated"`
	Deliveries  []DeliveryReport `json:"deliveries"`
}

type Config struct {
	SendTimeout time.Duration
	Concurrency int
}

// Dispatcher fans a match event out to every participant with a device
// token. Sends are independent: one failure never blocks or fails another.
type Dispatcher struct {
	recipients RecipientSource
	pruner     TokenPruner
	labels     Labeler
	transport  Transport
	cfg        Config
}

func NewDispatcher(recipients RecipientSource, pruner TokenPruner, labels Labeler, transport Transport, cfg Config) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		recipients: recipients,
		pruner:     pruner,
		labels:     labels,
		transport:  transport,
		cfg:        cfg,
	}
}

// BuildPayload returns the match notification for an option label.
func BuildPayload(sessionID, optionID, label string) Payload {
	body := fallbackBody
	if label != "" {
		body = "Everyone agreed on " + label
	}
	return Payload{
		Title: MatchTitle,
		Body:  body,
		Data:  PayloadData{SessionID: sessionID, OptionID: optionID},
		Sound: "default",
		Badge: 1,
	}
}

// NotifyMatch sends the match notification for a session. The error is
// only non-nil when recipients could not be resolved; delivery failures
// are reported per token in the Report.
func (d *Dispatcher) NotifyMatch(ctx context.Context, sessionID, optionID string) (Report, error) {
	report := Report{SessionID: sessionID, OptionID: optionID}

	label, err := d.labels.OptionLabel(ctx, optionID)
	if err != nil {
		slog.Warn("failed to resolve option label", "session_id", sessionID, "option_id", optionID, "error", err)
		label = ""
	}

	recipients, err := d.recipients.Recipients(ctx, sessionID)
	if err != nil {
		return report, errors.Wrap(err, "failed to resolve recipients")
	}

	payload := BuildPayload(sessionID, optionID, label)
	report.Deliveries = make([]DeliveryReport, len(recipients))

	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i, r := range recipients {
		g.Go(func() error {
			report.Deliveries[i] = d.deliver(ctx, r, payload)
			return nil
		})
	}
	_ = g.Wait()

	for _, dr := range report.Deliveries {
		if dr.Delivered {
			report.Sent++
			continue
		}
		report.Failed++
	}
	for _, dr := range report.Deliveries {
		if dr.PermanentFailure && d.pruned(ctx, dr) {
			report.Invalidated++
		}
	}

	slog.Info("match notification dispatched",
		"session_id", sessionID,
		"option_id", optionID,
		"sent", report.Sent,
		"failed", report.Failed,
		"invalidated", report.Invalidated,
	)
	return report, nil
}

func (d *Dispatcher) deliver(ctx context.Context, r models.Recipient, payload Payload) DeliveryReport {
	dr := DeliveryReport{UserID: r.UserID, Token: r.DeviceToken}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	err := d.transport.Send(sendCtx, r.DeviceToken, payload)
	switch {
	case err == nil:
		dr.Delivered = true
		metrics.PushesSent.WithLabelValues("delivered").Inc()
	case IsPermanent(err):
		dr.PermanentFailure = true
		dr.Reason = err.Error()
		metrics.PushesSent.WithLabelValues("permanent").Inc()
	default:
		dr.Reason = err.Error()
		metrics.PushesSent.WithLabelValues("transient").Inc()
		slog.Warn("push delivery failed", "user_id", r.UserID, "error", err)
	}
	return dr
}

// pruned clears a permanently failing token from its user record. It gets
// its own deadline so a fan-out that used up the caller's budget still
// forgets dead tokens.
func (d *Dispatcher) pruned(ctx context.Context, dr DeliveryReport) bool {
	pruneCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.SendTimeout)
	defer cancel()

	cleared, err := d.pruner.ClearDeviceToken(pruneCtx, dr.UserID, dr.Token)
	if err != nil {
		slog.Error("failed to prune device token", "user_id", dr.UserID, "error", err)
		return false
	}
	if cleared {
		metrics.TokensPruned.Inc()
		slog.Info("device token pruned", "user_id", dr.UserID, "reason", dr.Reason)
	}
	return cleared
}
