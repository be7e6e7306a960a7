// Package identity applies identity-provider verification decisions to
// users. It never touches orders or inventory; order creation reads the
// verified flag separately.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pourpass/internal/model"
)

// Decision codes as delivered by the provider.
const (
	DecisionApproved = 9001
	DecisionDeclined = 9102
	DecisionResubmit = 9103
	DecisionExpired  = 9104
)

// Decision is the decoded, signature-verified webhook payload.
type Decision struct {
	SessionID string
	Code      int
	UserID    string // vendor-supplied correlation value
}

type UserRepository interface {
	// MarkVerified flips the verified flag and records the session
	// reference and timestamp; no other personal data is stored.
	MarkVerified(ctx context.Context, userID, sessionID string, at time.Time) error
}

type AttemptRepository interface {
	SetStatus(ctx context.Context, sessionID, userID string, status model.VerificationStatus) error
}

type Service struct {
	users    UserRepository
	attempts AttemptRepository
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(users UserRepository, attempts AttemptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		attempts: attempts,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// WithNow overrides the clock; for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// HandleDecision maps the numeric decision onto the attempt and, for
// approvals only, the user. Declines and resubmissions leave the verified
// flag untouched so the user can retry.
func (s *Service) HandleDecision(ctx context.Context, d Decision) error {
	status := statusFor(d.Code)

	if status == model.VerificationApproved {
		if err := s.users.MarkVerified(ctx, d.UserID, d.SessionID, s.now()); err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}
	}

	if err := s.attempts.SetStatus(ctx, d.SessionID, d.UserID, status); err != nil {
		return fmt.Errorf("set attempt status: %w", err)
	}

	s.logger.Info("verification decision applied",
		"session_id", d.SessionID, "code", d.Code, "status", string(status))
	return nil
}

func statusFor(code int) model.VerificationStatus {
	switch code {
	case DecisionApproved:
		return model.VerificationApproved
	case DecisionDeclined:
		return model.VerificationDeclined
	case DecisionResubmit:
		return model.VerificationResubmit
	case DecisionExpired:
		return model.VerificationExpired
	default:
		return model.VerificationUnknown
	}
}
