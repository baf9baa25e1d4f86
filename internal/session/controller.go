package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"replica-auth/internal/auth"
	"replica-auth/internal/logger"
)

// ErrNoCredential is returned when a sign-in response carries no token.
var ErrNoCredential = errors.New("session: sign-in response carried no credential")

type State int

const (
	Initializing State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CredentialResponse is what the identity provider's sign-in widget hands
// back. Only Credential is used.
type CredentialResponse struct {
	Credential string `form:"credential" json:"credential"`
	SelectBy   string `form:"select_by" json:"select_by"`
	ClientID   string `form:"client_id" json:"client_id"`
}

// Decoder turns a raw identity token into claims.
type Decoder func(token string) (auth.Claims, error)

// Snapshot is the view of a Controller that consumers read.
type Snapshot struct {
	State     State
	Session   *Session
	IsLoading bool
}

// Controller holds the live session of one browser and drives the
// Initializing -> Authenticated/Unauthenticated transitions.
type Controller struct {
	store  *Store
	decode Decoder

	restore sync.Once

	mu        sync.Mutex
	state     State
	session   *Session
	listeners []func(Snapshot)
}

func NewController(store *Store, decode Decoder) *Controller {
	return &Controller{
		store:  store,
		decode: decode,
		state:  Initializing,
	}
}

// Subscribe registers fn to be called after every state transition.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	var sess *Session
	if c.session != nil {
		cp := *c.session
		sess = &cp
	}
	return Snapshot{
		State:     c.state,
		Session:   sess,
		IsLoading: c.state == Initializing,
	}
}

// Restore loads the persisted session once per Controller. It always leaves
// Initializing, whether the load succeeds, finds nothing or fails.
func (c *Controller) Restore(ctx context.Context) {
	c.restore.Do(func() {
		sess, err := c.store.Load(ctx)
		if err != nil {
			logger.Error("session restore failed", map[string]any{
				"error": err.Error(),
			})
		}
		c.transition(sess)
	})
}

// SignIn decodes the credential and establishes a session from its claims.
// Any failure leaves the controller Unauthenticated with storage cleared.
func (c *Controller) SignIn(ctx context.Context, resp CredentialResponse) error {
	c.restore.Do(func() {})

	if strings.TrimSpace(resp.Credential) == "" {
		c.transition(nil)
		if err := c.store.Clear(ctx); err != nil {
			return errors.Join(ErrNoCredential, err)
		}
		return ErrNoCredential
	}

	claims, err := c.decode(resp.Credential)
	if err != nil {
		c.transition(nil)
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			return errors.Join(err, clearErr)
		}
		return err
	}

	sess := FromClaims(claims)
	c.transition(&sess)

	return c.store.Save(ctx, sess)
}

// SignOut forgets the session locally. Nothing is revoked upstream.
func (c *Controller) SignOut(ctx context.Context) error {
	return c.SetSession(ctx, nil)
}

// SetSession replaces the session, or clears it when sess is nil, and keeps
// storage in step.
func (c *Controller) SetSession(ctx context.Context, sess *Session) error {
	c.restore.Do(func() {})

	if sess == nil {
		c.transition(nil)
		return c.store.Clear(ctx)
	}

	cp := *sess
	c.transition(&cp)
	return c.store.Save(ctx, cp)
}

func (c *Controller) transition(sess *Session) {
	c.mu.Lock()
	c.session = sess
	if sess != nil {
		c.state = Authenticated
	} else {
		c.state = Unauthenticated
	}
	snap := c.snapshotLocked()
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
