package link

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/url"

	"replica-auth/internal/logger"
)

// Query parameters the backend writes onto the dashboard URL after the
// provider redirects back to it.
const (
	ParamStatus   = "status"
	ParamTeamID   = "team_id"
	ParamTeamName = "team_name"
	ParamMessage  = "message"
	ParamState    = "state"

	StatusSuccess = "success"
	StatusError   = "error"
)

var callbackParams = []string{ParamStatus, ParamTeamID, ParamTeamName, ParamMessage, ParamState}

var (
	// ErrCsrfMismatch means the echoed state did not match the stored
	// request. It is handled exactly like a provider error.
	ErrCsrfMismatch  = errors.New("link: state does not match the outbound request")
	ErrProviderError = errors.New("link: provider reported an error")
)

const genericErrorMessage = "Failed to connect your workspace. Please try again."

// LinkedAccount is a successfully connected external workspace.
type LinkedAccount struct {
	ExternalTeamID string `json:"externalTeamId"`
	TeamName       string `json:"teamName,omitempty"`
	IsActive       bool   `json:"isActive"`
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type Outcome int

const (
	// OutcomeNone leaves any linked-account state untouched.
	OutcomeNone Outcome = iota
	OutcomeLinked
	OutcomeFailed
)

// Result describes what a callback did. URL is the input URL with every
// callback parameter removed.
type Result struct {
	Outcome  Outcome
	Account  *LinkedAccount
	Notice   *Notification
	Err      error
	URL      *url.URL
	Stripped bool
}

// Reconciler reads linking outcomes for one browser.
type Reconciler struct {
	states *StateStore
}

func NewReconciler(states *StateStore) *Reconciler {
	return &Reconciler{states: states}
}

// Reconcile interprets the callback parameters on u for the signed-in
// subject. A success marker is trusted only when the echoed state matches
// the stored request, which is consumed either way.
func (r *Reconciler) Reconcile(ctx context.Context, u *url.URL, subjectID string) Result {
	q := u.Query()
	res := Result{}
	res.URL, res.Stripped = strip(u)

	switch q.Get(ParamStatus) {
	case StatusSuccess:
		teamID := q.Get(ParamTeamID)
		if teamID == "" {
			r.discardState(ctx)
			return failed(res, ErrProviderError, "")
		}
		if err := r.verify(ctx, q.Get(ParamState), subjectID); err != nil {
			logger.Warn("link callback rejected", map[string]any{
				"error": err.Error(),
			})
			return failed(res, err, "")
		}

		teamName := q.Get(ParamTeamName)
		if teamName == "" {
			teamName = "Workspace " + teamID
		}
		res.Outcome = OutcomeLinked
		res.Account = &LinkedAccount{
			ExternalTeamID: teamID,
			TeamName:       teamName,
			IsActive:       true,
		}
		res.Notice = &Notification{
			Level:   LevelSuccess,
			Message: "Connected to " + teamName + ".",
		}
		return res

	case StatusError:
		r.discardState(ctx)
		return failed(res, ErrProviderError, q.Get(ParamMessage))

	default:
		return res
	}
}

func (r *Reconciler) verify(ctx context.Context, rawState, subjectID string) error {
	stored, err := r.states.Consume(ctx)
	if err != nil {
		return errors.Join(ErrCsrfMismatch, err)
	}
	if stored == nil {
		return ErrCsrfMismatch
	}

	echoed, ok := decodeState(rawState)
	if !ok {
		return ErrCsrfMismatch
	}
	if subtle.ConstantTimeCompare([]byte(echoed.Nonce), []byte(stored.Nonce)) != 1 {
		return ErrCsrfMismatch
	}
	if echoed.SubjectID != stored.SubjectID || stored.SubjectID != subjectID {
		return ErrCsrfMismatch
	}
	return nil
}

func (r *Reconciler) discardState(ctx context.Context) {
	if _, err := r.states.Consume(ctx); err != nil {
		logger.Warn("failed to discard link state", map[string]any{
			"error": err.Error(),
		})
	}
}

func failed(res Result, err error, message string) Result {
	if message == "" {
		message = genericErrorMessage
	}
	res.Outcome = OutcomeFailed
	res.Err = err
	res.Notice = &Notification{Level: LevelError, Message: message}
	return res
}

// strip returns a copy of u without callback parameters and whether any
// were present.
func strip(u *url.URL) (*url.URL, bool) {
	clean := *u
	q := u.Query()

	removed := false
	for _, k := range callbackParams {
		if _, ok := q[k]; ok {
			q.Del(k)
			removed = true
		}
	}
	if removed {
		clean.RawQuery = q.Encode()
	}
	return &clean, removed
}
