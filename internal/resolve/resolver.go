// Package resolve turns markdown image references into renderable URLs.
//
// Each rendered image node goes through a small state machine: Pending while
// the backend load is in flight, then Resolved (the node got an ephemeral
// URL) or Failed (record missing or backend error, rendered as a
// missing-image placeholder). Resolution never blocks the rest of the
// document and never raises an application error: the worst outcome is a
// broken-image placeholder.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/maruel/mdpaste/internal/imgref"
	"github.com/maruel/mdpaste/internal/imgstore"
	"golang.org/x/sync/singleflight"
)

// State is the terminal outcome of a resolution.
type State int

const (
	// StatePending is the transient state while the load is in flight.
	// Resolve only returns terminal states; Pending exists for callers
	// displaying an in-progress placeholder.
	StatePending State = iota
	// StateResolved means the node got a renderable URL.
	StateResolved
	// StateFailed means the record is missing or unreadable. Expected,
	// non-fatal: references routinely outlive their records.
	StateFailed
)

// Resolution is the outcome for one rendered node.
type Resolution struct {
	State State `json:"state"`
	// URL is the ephemeral renderable URL, set only when State is
	// StateResolved. It stays valid until the node is released.
	URL string `json:"url,omitempty"`
}

// shared is one live ephemeral URL, reference-counted across the rendered
// nodes currently displaying that image.
type shared struct {
	token string
	refs  int
}

// Resolver resolves references against a store and manages the lifetime of
// the resulting ephemeral URLs.
//
// Concurrent resolutions of the same image id share one backend Load and one
// arena token; the in-flight entry is dropped as soon as the load settles.
// Every node that reached StateResolved must be released exactly once via
// Release, on all disposal paths, or tokens accumulate for the lifetime of
// the session.
type Resolver struct {
	store imgstore.Store
	arena *Arena
	group singleflight.Group

	mu    sync.Mutex
	byID  map[string]*shared // images with at least one live node
	nodes map[string]string  // node id -> image id
}

// New returns a resolver backed by store, registering URLs in arena.
func New(store imgstore.Store, arena *Arena) *Resolver {
	return &Resolver{
		store: store,
		arena: arena,
		byID:  make(map[string]*shared),
		nodes: make(map[string]string),
	}
}

// Resolve resolves ref for the rendered node identified by node and returns
// its terminal state. Safe for concurrent use; independent nodes resolve
// independently and in no particular order.
//
// If ctx is cancelled while the load is in flight (node torn down during
// resolution), the result is discarded: nothing is substituted into the dead
// node and the URL is released immediately unless another node holds it.
func (r *Resolver) Resolve(ctx context.Context, node string, ref imgref.Ref) Resolution {
	// Two attempts: the entry can vanish between the shared load and this
	// caller adopting it, when a cancelled sibling dropped it first.
	for range 2 {
		v, err, _ := r.group.Do(ref.ID, func() (any, error) {
			r.mu.Lock()
			if sh := r.byID[ref.ID]; sh != nil {
				// Already resolved for a live node; share its URL.
				r.mu.Unlock()
				return sh, nil
			}
			r.mu.Unlock()
			// The load is shared by every node deduplicated onto this
			// flight, so it must not die with the first caller. Each
			// caller applies its own cancellation after Do returns.
			data, mt, err := r.store.Load(context.WithoutCancel(ctx), ref.ID)
			if err != nil {
				return nil, err
			}
			sh := &shared{token: r.arena.Add(data, mt)}
			r.mu.Lock()
			r.byID[ref.ID] = sh
			r.mu.Unlock()
			return sh, nil
		})
		if err != nil {
			if errors.Is(err, imgstore.ErrNotFound) {
				slog.DebugContext(ctx, "Image reference has no record", "id", ref.ID)
			} else {
				slog.WarnContext(ctx, "Failed to load image", "id", ref.ID, "err", err)
			}
			return Resolution{State: StateFailed}
		}
		sh := v.(*shared)

		r.mu.Lock()
		if ctx.Err() != nil {
			// Node died while we were loading. Do not hand out the URL;
			// drop it right away if nobody else picked it up.
			if sh.refs == 0 && r.byID[ref.ID] == sh {
				r.arena.Revoke(sh.token)
				delete(r.byID, ref.ID)
			}
			r.mu.Unlock()
			return Resolution{State: StateFailed}
		}
		if r.byID[ref.ID] != sh {
			// Dropped before we could adopt it; resolve anew.
			r.mu.Unlock()
			continue
		}
		if prev, ok := r.nodes[node]; ok {
			if prev == ref.ID {
				// Same node re-rendered with the same reference; keep
				// the single hold it already has.
				r.mu.Unlock()
				return Resolution{State: StateResolved, URL: urlForToken(sh.token)}
			}
			// Node re-rendered pointing at a different image; drop the
			// old hold.
			r.releaseLocked(node)
		}
		sh.refs++
		r.nodes[node] = ref.ID
		r.mu.Unlock()
		return Resolution{State: StateResolved, URL: urlForToken(sh.token)}
	}
	return Resolution{State: StateFailed}
}

// Release disposes the node's resolution. The ephemeral URL is revoked once
// the last node holding it is released. Releasing an unknown or failed node
// is a no-op, so teardown paths can call it unconditionally.
func (r *Resolver) Release(node string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(node)
}

func (r *Resolver) releaseLocked(node string) {
	id, ok := r.nodes[node]
	if !ok {
		return
	}
	delete(r.nodes, node)
	sh := r.byID[id]
	if sh == nil {
		return
	}
	if sh.refs--; sh.refs <= 0 {
		r.arena.Revoke(sh.token)
		delete(r.byID, id)
	}
}

func urlForToken(token string) string {
	return "/img/" + token
}
