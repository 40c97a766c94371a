package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/timer"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrReminderNotFound     = errors.New("reminder not found")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, generates a unique ID and creates a
	// session with the given fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	// GetSessionByID returns ErrSessionNotFound for unknown
	// or malformed session IDs.
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)

	// DeleteExpiredSessions removes sessions whose refresh token
	// expired before now and returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type UserService interface {
	// GetUserByID returns the user without its password hash
	// or ErrUserNotFound.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type ReminderService interface {
	// CreateReminder starts a new active reminder placed after
	// every other reminder of the owner in manual order.
	CreateReminder(ctx context.Context, params CreateReminderParams) (*models.Reminder, error)

	// GetReminder returns ErrReminderNotFound when the reminder
	// doesn't exist or belongs to another user.
	GetReminder(ctx context.Context, params ReminderParams) (*models.Reminder, error)

	// GetReminders returns every reminder of the user as stored,
	// pinned first, then by manual order, newest first.
	GetReminders(ctx context.Context, userID string) ([]*models.Reminder, error)

	// ApplyAction runs a user transition against the stored reminder
	// and persists the result. A transition into the completed phase
	// fires the completion notification once.
	ApplyAction(ctx context.Context, params ApplyActionParams) (*models.Reminder, error)

	DeleteReminder(ctx context.Context, params ReminderParams) error

	// Sync reconciles every incomplete reminder of the user against
	// the current time. Reminders that crossed zero are completed and
	// notified exactly once, even under concurrent syncs.
	Sync(ctx context.Context, userID string) (*SyncResult, error)

	// Reorder applies each update independently. A failing update
	// doesn't roll back the ones before it.
	Reorder(ctx context.Context, userID string, updates []timer.OrderUpdate) (*ReorderResult, error)

	// SweepAll runs Sync for every user that has active reminders and
	// returns the number of reminders completed.
	SweepAll(ctx context.Context) (int, error)
}

// ReminderStore is the durable reminder storage. Every method except
// ListOwnersWithActive is scoped to the owner and reports a missing or
// foreign reminder as ErrReminderNotFound.
type ReminderStore interface {
	Insert(ctx context.Context, reminder *models.Reminder) error
	Get(ctx context.Context, userID, id string) (*models.Reminder, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Reminder, error)
	ListIncomplete(ctx context.Context, userID string) ([]*models.Reminder, error)
	ListOwnersWithActive(ctx context.Context) ([]string, error)
	NextOrder(ctx context.Context, userID string) (int, error)

	// Save overwrites every mutable field of the reminder.
	Save(ctx context.Context, reminder *models.Reminder) error

	// MarkCompleted completes the reminder only if it isn't completed
	// yet. The bool reports whether this call did the transition.
	MarkCompleted(ctx context.Context, userID, id string) (*models.Reminder, bool, error)

	// SetRemaining updates the remaining seconds of an incomplete reminder.
	SetRemaining(ctx context.Context, userID, id string, remaining int64) error

	SetOrder(ctx context.Context, userID, id string, order int) error
	Delete(ctx context.Context, userID, id string) error
}

// Notifier delivers a completion notice. Implementations swallow and log
// their own failures.
type Notifier interface {
	NotifyCompletion(ctx context.Context, completion Completion)
}

type Completion struct {
	ReminderID string
	Email      string
	Title      string
	Category   string
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateReminderParams struct {
	UserID      string
	Title       string
	Category    string
	UpgradeType string
	Hours       int64
	Minutes     int64
	Seconds     int64
}

type ReminderParams struct {
	ID     string
	UserID string
}

type ApplyActionParams struct {
	ID     string
	UserID string
	Action timer.Action
}

type RemainingUpdate struct {
	ID               string `json:"id"`
	RemainingSeconds int64  `json:"remainingSeconds"`
}

type CompletedReminder struct {
	ID       string  `json:"id"`
	Title    *string `json:"title,omitempty"`
	Category string  `json:"category"`
}

type SyncResult struct {
	Updated   []RemainingUpdate
	Completed []CompletedReminder
}

type ReorderResult struct {
	Applied int
	Failed  []string
}
