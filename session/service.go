// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/swivo/apperr"
	"github.com/danielhkuo/swivo/catalog"
	"github.com/danielhkuo/swivo/invite"
	"github.com/danielhkuo/swivo/metrics"
	"github.com/danielhkuo/swivo/models"
	"github.com/danielhkuo/swivo/notify"
)

const (
	DefaultStoreTimeout  = 5 * time.Second
	DefaultNotifyTimeout = 30 * time.Second

	maxIDLength    = 128
	maxTokenLength = 4096
)

// Store is the persistence contract the service needs. *store.Store
// implements it.
type Store interface {
	CreateSession(ctx context.Context, creatorID, categoryID string, quorumN int, optionIDs []string) (*models.Session, error)
	JoinSession(ctx context.Context, inviteCode, userID string) (*models.Session, error)
	RecordLikeAndEvaluateQuorum(ctx context.Context, sessionID, optionID, userID string) (models.LikeResult, error)
	CloseSession(ctx context.Context, sessionID, requesterID string) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessionsForUser(ctx context.Context, userID string, statuses []string) ([]models.Session, error)
	ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error)
	IsParticipant(ctx context.Context, sessionID, userID string) (bool, error)
	SessionOptionIDs(ctx context.Context, sessionID string) ([]string, error)
	SetDeviceToken(ctx context.Context, userID string, token *string) error
	DeviceToken(ctx context.Context, userID string) (*string, error)
}

// Notifier is told about every session that reaches a match.
type Notifier interface {
	NotifyMatch(ctx context.Context, sessionID, optionID string) (notify.Report, error)
}

type Config struct {
	// StoreTimeout bounds every store call made on behalf of a request.
	StoreTimeout time.Duration
	// NotifyTimeout bounds one whole match fan-out.
	NotifyTimeout time.Duration
}

// Service is the session API boundary. It validates input, bounds every
// store call with a timeout, and fires the match notification exactly once,
// on the like that performed the open->matched transition.
type Service struct {
	store    Store
	catalog  catalog.Catalog
	notifier Notifier
	cfg      Config

	inflight sync.WaitGroup
}

func NewService(store Store, cat catalog.Catalog, notifier Notifier, cfg Config) *Service {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	return &Service{store: store, catalog: cat, notifier: notifier, cfg: cfg}
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func requireUser(userID string) error {
	if userID == "" {
		return apperr.ErrUnauthenticated
	}
	return nil
}

func requireID(name, id string) error {
	if id == "" {
		return apperr.Invalid(name + " is required")
	}
	if len(id) > maxIDLength {
		return apperr.Invalid(name + " is too long")
	}
	return nil
}

// CreateSession opens a session over the options of a category with the
// caller as creator and first participant.
func (s *Service) CreateSession(ctx context.Context, userID, categoryID string, quorumN int) (*models.Session, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := requireID("category_id", categoryID); err != nil {
		return nil, err
	}
	if quorumN < 1 {
		return nil, apperr.Invalid("quorum_n must be at least 1")
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	optionIDs, err := s.catalog.CategoryOptionIDs(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.CreateSession(ctx, userID, categoryID, quorumN, optionIDs)
	if err != nil {
		return nil, err
	}

	metrics.SessionsCreated.Inc()
	slog.Info("session created", "session_id", sess.ID, "creator_id", userID, "quorum_n", quorumN, "options", len(optionIDs))
	return sess, nil
}

// JoinSession adds the caller to the session behind an invite code.
func (s *Service) JoinSession(ctx context.Context, userID, inviteCode string) (*models.Session, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil, apperr.Invalid("invite_code is required")
	}
	if !invite.Valid(code) || len(code) > 32 {
		return nil, apperr.ErrNotFound
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	sess, err := s.store.JoinSession(ctx, code, userID)
	if err != nil {
		return nil, err
	}

	slog.Info("session joined", "session_id", sess.ID, "user_id", userID)
	return sess, nil
}

// LikeOption records a like. When this call is the one that moved the
// session to matched, the match notification is dispatched in the
// background; its outcome never affects the result returned here. On
// apperr.ErrSessionNotOpen the result carries the matched option, if any.
func (s *Service) LikeOption(ctx context.Context, userID, sessionID, optionID string) (models.LikeResult, error) {
	if err := requireUser(userID); err != nil {
		return models.LikeResult{}, err
	}
	if err := requireID("session_id", sessionID); err != nil {
		return models.LikeResult{}, err
	}
	if err := requireID("option_id", optionID); err != nil {
		return models.LikeResult{}, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	res, err := s.store.RecordLikeAndEvaluateQuorum(ctx, sessionID, optionID, userID)
	if err != nil {
		if apperr.Retryable(err) {
			metrics.LikesRecorded.WithLabelValues("error").Inc()
		} else {
			metrics.LikesRecorded.WithLabelValues("rejected").Inc()
		}
		return models.LikeResult{MatchedOptionID: res.MatchedOptionID}, err
	}

	if res.AlreadyLiked {
		metrics.LikesRecorded.WithLabelValues("duplicate").Inc()
	} else {
		metrics.LikesRecorded.WithLabelValues("recorded").Inc()
	}

	if res.Matched {
		metrics.SessionsMatched.Inc()
		s.dispatch(sessionID, optionID)
	}
	return res, nil
}

func (s *Service) dispatch(sessionID, optionID string) {
	if s.notifier == nil {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
		defer cancel()

		if _, err := s.notifier.NotifyMatch(ctx, sessionID, optionID); err != nil {
			slog.Error("match notification failed", "session_id", sessionID, "option_id", optionID, "error", err)
		}
	}()
}

// Wait blocks until every background notification has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// CloseSession ends an open session without a match. When the store call
// fails ambiguously, the current status is read back: a session that is
// now closed by this creator counts as success.
func (s *Service) CloseSession(ctx context.Context, userID, sessionID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := requireID("session_id", sessionID); err != nil {
		return err
	}

	storeCtx, cancel := s.storeCtx(ctx)
	err := s.store.CloseSession(storeCtx, sessionID, userID)
	cancel()
	if err == nil {
		slog.Info("session closed", "session_id", sessionID, "user_id", userID)
		return nil
	}
	if !apperr.Retryable(err) {
		return err
	}

	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer cancel()
	sess, getErr := s.store.GetSession(checkCtx, sessionID)
	if getErr != nil {
		return err
	}
	if sess.Status == models.StatusClosed && sess.CreatorID == userID {
		slog.Info("session close confirmed after ambiguous failure", "session_id", sessionID, "error", err)
		return nil
	}
	return err
}

// GetSession returns a session with its participants and, once matched,
// the matched option. Only participants may read it.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*models.SessionDetail, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := requireID("session_id", sessionID); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.IsParticipant(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotParticipant
	}
	participants, err := s.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	detail := &models.SessionDetail{Session: *sess, Participants: participants}
	if sess.MatchedOptionID != nil {
		options, err := s.catalog.Options(ctx, []string{*sess.MatchedOptionID})
		if err != nil {
			slog.Warn("failed to load matched option", "session_id", sessionID, "error", err)
		} else if len(options) == 1 {
			detail.MatchedOption = &options[0]
		}
	}
	return detail, nil
}

// ListSessions returns the caller's sessions. filter is "open", "history"
// (matched or closed), a single status, or empty for all.
func (s *Service) ListSessions(ctx context.Context, userID, filter string) ([]models.Session, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	statuses, err := statusesFor(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.ListSessionsForUser(ctx, userID, statuses)
}

func statusesFor(filter string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "":
		return nil, nil
	case models.FilterOpen:
		return []string{models.StatusOpen}, nil
	case models.FilterHistory:
		return []string{models.StatusMatched, models.StatusClosed}, nil
	case models.StatusMatched:
		return []string{models.StatusMatched}, nil
	case models.StatusClosed:
		return []string{models.StatusClosed}, nil
	}
	return nil, apperr.Invalid("status must be one of: open, history, matched, closed")
}

// SessionOptions returns the candidate deck of a session to a participant.
func (s *Service) SessionOptions(ctx context.Context, userID, sessionID string) ([]models.Option, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := requireID("session_id", sessionID); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	ok, err := s.store.IsParticipant(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotParticipant
	}

	ids, err := s.store.SessionOptionIDs(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.catalog.Options(ctx, ids)
}

// UpdateDeviceToken stores or, with a nil token, clears the caller's push
// token.
func (s *Service) UpdateDeviceToken(ctx context.Context, userID string, token *string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if token != nil {
		t := strings.TrimSpace(*token)
		if len(t) > maxTokenLength {
			return apperr.Invalid("token is too long")
		}
		token = &t
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.SetDeviceToken(ctx, userID, token); err != nil {
		return err
	}
	slog.Info("device token updated", "user_id", userID, "cleared", token == nil || *token == "")
	return nil
}

// PushEnabled reports whether the caller has a device token on file.
func (s *Service) PushEnabled(ctx context.Context, userID string) (bool, error) {
	if err := requireUser(userID); err != nil {
		return false, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	token, err := s.store.DeviceToken(ctx, userID)
	if err != nil {
		return false, err
	}
	return token != nil && *token != "", nil
}
