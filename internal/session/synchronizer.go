// Package session bridges the identity provider's session-change
// notifications with the per-user profile record, so every authenticated
// session resolves to exactly one profile.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/identity"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/metrics"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/profile"
)

// Profile is the resolved session/record merge published to consumers. The
// role variant is decided once here; nothing downstream re-checks raw fields.
type Profile struct {
	UserID          string       `json:"userId"`
	Email           string       `json:"email"`
	Anonymous       bool         `json:"anonymous"`
	Role            profile.Role `json:"role"`
	Verified        bool         `json:"isVerified"`
	Onboarded       bool         `json:"isOnboarded"`
	ProfileImageURL string       `json:"profileImageUrl"`
	CreatedAt       time.Time    `json:"createdAt"`
	// Degraded marks a fallback profile published because the record could
	// not be read or created.
	Degraded bool `json:"-"`
}

// Snapshot is the read-only pair the rest of the service consumes. While
// Initializing is true the profile is unknown, not absent.
type Snapshot struct {
	Profile      *Profile
	Initializing bool
}

// Synchronizer maintains the mapping from current session to current profile.
// All collaborators are injected at construction.
type Synchronizer struct {
	provider identity.Provider
	sessions *identity.Sessions
	store    profile.Repository
	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time

	// latest is the sequence number of the most recently observed
	// notification; resolutions for older sequences are discarded.
	latest atomic.Uint64

	mu        sync.Mutex
	snapshot  Snapshot
	nextWatch int
	watchers  map[int]func(Snapshot)

	startOnce   sync.Once
	unsubscribe func()
}

// New constructs a Synchronizer. It does nothing until Start is called.
func New(provider identity.Provider, sessions *identity.Sessions, store profile.Repository, logger *slog.Logger, recorder metrics.Recorder) *Synchronizer {
	return &Synchronizer{
		provider: provider,
		sessions: sessions,
		store:    store,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
		snapshot: Snapshot{Initializing: true},
		watchers: make(map[int]func(Snapshot)),
	}
}

// Start subscribes to session changes and runs the bootstrap sequence exactly
// once: redeem the custom token when present, otherwise establish an
// anonymous session. Bootstrap failure is logged and demoted to a signed-out
// announcement, so the first notification always arrives and the service
// stays usable.
func (s *Synchronizer) Start(ctx context.Context, bootstrapToken string) {
	s.startOnce.Do(func() {
		s.unsubscribe = s.sessions.Subscribe(func(n identity.Notification) {
			s.handle(ctx, n)
		})

		sess, err := s.bootstrap(ctx, bootstrapToken)
		if err != nil {
			s.logger.Error("auth bootstrap failed", "error", err)
			s.sessions.Announce(nil)
			return
		}
		s.sessions.Announce(&sess)
	})
}

// Stop detaches from the session registry.
func (s *Synchronizer) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Synchronizer) bootstrap(ctx context.Context, token string) (identity.Session, error) {
	if token != "" {
		sess, err := s.provider.SignInWithCustomToken(ctx, token)
		if err == nil {
			s.logger.Info("session bootstrapped from custom token", "userId", sess.UserID)
		}
		return sess, err
	}
	sess, err := s.provider.SignInAnonymously(ctx)
	if err == nil {
		s.logger.Info("anonymous session established", "userId", sess.UserID)
	}
	return sess, err
}

// handle runs inside the registry's announce lock, so sequence observation is
// ordered. Profile resolution happens off this path; a signed-out transition
// publishes right away.
func (s *Synchronizer) handle(ctx context.Context, n identity.Notification) {
	s.latest.Store(n.Seq)

	if n.Session == nil {
		s.publish(n.Seq, nil)
		s.recorder.RecordResolution(metrics.ResolutionSignedOut, 0)
		return
	}

	sess := *n.Session
	go s.resolve(ctx, n.Seq, sess)
}

func (s *Synchronizer) resolve(ctx context.Context, seq uint64, sess identity.Session) {
	start := s.now()
	resolved, result := s.lookup(ctx, sess)
	if s.publish(seq, resolved) {
		s.recorder.RecordResolution(result, s.now().Sub(start))
	}
}

// lookup is the get-or-create. Store failures never propagate; they collapse
// into a degraded profile with the role forced to client.
func (s *Synchronizer) lookup(ctx context.Context, sess identity.Session) (*Profile, string) {
	rec, err := s.store.Get(ctx, sess.UserID)
	switch {
	case err == nil:
		return merge(sess, *rec), metrics.ResolutionExisting

	case errors.Is(err, profile.ErrNotFound):
		created := profile.Default(sess.Email, s.now())
		if err := s.store.Set(ctx, sess.UserID, created); err != nil {
			s.logger.Error("create default profile record", "userId", sess.UserID, "error", err)
			return degraded(sess), metrics.ResolutionDegraded
		}
		s.logger.Warn("profile record missing, created default", "userId", sess.UserID, "role", created.Role)
		return merge(sess, created), metrics.ResolutionCreated

	default:
		s.logger.Error("fetch profile record", "userId", sess.UserID, "error", err)
		return degraded(sess), metrics.ResolutionDegraded
	}
}

// publish installs the snapshot unless a newer notification has been observed
// since seq. The first accepted publication clears Initializing, exactly once.
func (s *Synchronizer) publish(seq uint64, p *Profile) bool {
	if s.latest.Load() != seq {
		return false
	}

	s.mu.Lock()
	if s.latest.Load() != seq {
		s.mu.Unlock()
		return false
	}
	s.snapshot = Snapshot{Profile: p}
	snap := s.snapshot
	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(snap)
	}
	return true
}

// Snapshot returns the current resolved state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Watch registers a callback invoked on every publication and returns an
// unsubscribe func.
func (s *Synchronizer) Watch(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

func merge(sess identity.Session, rec profile.Record) *Profile {
	role := rec.Role
	if !role.Valid() {
		role = profile.RoleClient
	}
	email := rec.Email
	if email == "" {
		email = sess.Email
	}
	return &Profile{
		UserID:          sess.UserID,
		Email:           email,
		Anonymous:       sess.Anonymous,
		Role:            role,
		Verified:        rec.Verified,
		Onboarded:       rec.Onboarded,
		ProfileImageURL: rec.ProfileImageURL,
		CreatedAt:       rec.CreatedAt,
	}
}

func degraded(sess identity.Session) *Profile {
	return &Profile{
		UserID:    sess.UserID,
		Email:     sess.Email,
		Anonymous: sess.Anonymous,
		Role:      profile.RoleClient,
		Degraded:  true,
	}
}
