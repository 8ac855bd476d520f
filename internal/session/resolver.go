// Package session joins provider-asserted identity with stored role metadata.
// The Resolver observes session-state transitions from the gateway and
// produces a unified identity, or nil when no complete identity exists.
package session

import (
	"context"
	"errors"
	"sync"

	"crewbase.org/internal/identity"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/profile"
	"crewbase.org/internal/provider"
)

// State is the resolver's position in the resolution state machine.
type State string

const (
	SignedOut State = "signed_out"
	Resolving State = "resolving"
	SignedIn  State = "signed_in"
)

// Resolver drives the session resolution state machine. It never yields a
// partial identity: an active provider session without a profile record is
// delivered as nil.
type Resolver struct {
	gateway  provider.Gateway
	profiles profile.Store

	mu      sync.RWMutex
	state   State
	current *identity.Resolved
	lastSeq uint64

	subsMu sync.RWMutex
	subs   map[int]chan *identity.Resolved
	nextID int
}

// New constructs a Resolver in the signed-out state. Run must be called to
// start consuming gateway transitions.
func New(gateway provider.Gateway, profiles profile.Store) *Resolver {
	return &Resolver{
		gateway:  gateway,
		profiles: profiles,
		state:    SignedOut,
		subs:     make(map[int]chan *identity.Resolved),
	}
}

// Run consumes session-state transitions until ctx ends. Each sign-in
// transition resolves the profile asynchronously; a newer transition
// supersedes an in-flight resolution and the stale result is discarded.
func (r *Resolver) Run(ctx context.Context) error {
	events := r.gateway.SubscribeSessionState(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			r.handle(ctx, evt)
		}
	}
}

func (r *Resolver) handle(ctx context.Context, evt provider.Event) {
	if evt.Identity == nil {
		r.mu.Lock()
		r.lastSeq = evt.Seq
		r.state = SignedOut
		r.current = nil
		r.mu.Unlock()
		obs.ObserveResolution("signed_out")
		r.deliver(nil)
		return
	}

	r.mu.Lock()
	r.lastSeq = evt.Seq
	r.state = Resolving
	r.mu.Unlock()

	// Store lookups are not cancelable mid-flight; the result is checked
	// against the latest sequence before it is applied.
	go r.resolve(ctx, evt)
}

func (r *Resolver) resolve(ctx context.Context, evt provider.Event) {
	p, err := r.profiles.Get(ctx, evt.Identity.ID)

	r.mu.Lock()
	if evt.Seq != r.lastSeq {
		r.mu.Unlock()
		obs.ObserveResolution("stale")
		return
	}
	switch {
	case err == nil:
		res := identity.Merge(*evt.Identity, p)
		r.state = SignedIn
		r.current = res
		r.mu.Unlock()
		obs.ObserveResolution("signed_in")
		r.deliver(res)
	case errors.Is(err, identity.ErrProfileNotFound):
		// The provider session stays active; only login tears it down.
		r.state = SignedOut
		r.current = nil
		r.mu.Unlock()
		obs.ObserveResolution("missing_profile")
		r.deliver(nil)
	default:
		r.state = SignedOut
		r.current = nil
		r.mu.Unlock()
		obs.ObserveResolution("error")
		r.deliver(nil)
	}
}

// Current returns the last resolved identity, or nil when signed out or
// still resolving.
func (r *Resolver) Current() *identity.Resolved {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// State returns the resolver's current state.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Subscribe registers a consumer of resolution results. The current value is
// delivered immediately, then every completed resolution. The channel closes
// when ctx ends.
func (r *Resolver) Subscribe(ctx context.Context) <-chan *identity.Resolved {
	ch := make(chan *identity.Resolved, 16)

	r.subsMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.subsMu.Unlock()

	ch <- r.Current()

	go func() {
		<-ctx.Done()
		r.subsMu.Lock()
		delete(r.subs, id)
		close(ch)
		r.subsMu.Unlock()
	}()

	return ch
}

func (r *Resolver) deliver(res *identity.Resolved) {
	r.subsMu.RLock()
	defer r.subsMu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- res:
		default:
			// Slow consumers miss intermediate values; they must key their
			// state off the identity id of the latest delivery anyway.
		}
	}
}
