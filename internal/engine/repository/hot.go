package repository

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"go.trai.ch/zerr"
)

// Subscriber is implemented by repositories fed by the realtime channel.
type Subscriber interface {
	Type() domain.EntityType
	Subscribe() error
	Unsubscribe() error
	IsSubscribed() bool
}

// Hot is a repository for frequently changing entities. Reads bypass the query
// cache and the store is kept current by realtime change notifications.
type Hot[T domain.Entity, P domain.Patch[T]] struct {
	*Base[T, P]

	mu    sync.Mutex
	subID ports.SubscriptionID
	live  bool
}

// NewHot creates a hot repository for t.
func NewHot[T domain.Entity, P domain.Patch[T]](deps Deps, t domain.EntityType) *Hot[T, P] {
	return &Hot[T, P]{Base: newBase[T, P](deps, t, domain.DefaultHotTTL)}
}

// Subscribe registers the repository's change handler for its table.
// Calling it while already subscribed is a no-op.
func (r *Hot[T, P]) Subscribe() error {
	if r.deps.Channel == nil {
		return zerr.With(zerr.Wrap(domain.ErrNotConnected, "no realtime channel"), "type", string(r.typ))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live {
		return nil
	}

	id, err := r.deps.Channel.Subscribe(string(r.typ), r.HandleChange)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "subscribe"), "type", string(r.typ))
	}
	r.subID = id
	r.live = true
	return nil
}

// Unsubscribe removes the change handler. It is idempotent.
func (r *Hot[T, P]) Unsubscribe() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live {
		return nil
	}

	r.live = false
	id := r.subID
	r.subID = ""
	if err := r.deps.Channel.Unsubscribe(string(r.typ), id); err != nil {
		return zerr.With(zerr.Wrap(err, "unsubscribe"), "type", string(r.typ))
	}
	return nil
}

// IsSubscribed reports whether the change handler is registered.
func (r *Hot[T, P]) IsSubscribed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// HandleChange applies one change notification to the store. Notifications
// without a usable id or with an undecodable payload are dropped. Ids are
// taken verbatim, so a padded id never reaches the store.
func (r *Hot[T, P]) HandleChange(n domain.ChangeNotification) error {
	id, ok := n.EntityID()
	if !ok {
		r.deps.Logger.Warn(fmt.Sprintf("dropped %s notification on %s: missing id", n.Op, r.typ))
		return nil
	}

	switch n.Op {
	case domain.OpDelete:
		r.deps.Store.Remove(r.typ, id)
	case domain.OpInsert, domain.OpUpdate:
		var e T
		if err := json.Unmarshal(n.New, &e); err != nil {
			r.deps.Logger.Warn(fmt.Sprintf("dropped %s notification on %s/%s: %v", n.Op, r.typ, id, err))
			return nil
		}
		if err := r.deps.Store.Set(r.typ, e); err != nil {
			return err
		}
	default:
		r.deps.Logger.Warn(fmt.Sprintf("dropped notification on %s/%s: unknown op %q", r.typ, id, n.Op))
	}
	return nil
}
