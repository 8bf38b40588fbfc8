package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/recipenav/recipenav/internal/collection"
	"github.com/recipenav/recipenav/internal/models"
)

// DefaultPollInterval is how often the poller reconciles like metadata when
// no interval is configured.
const DefaultPollInterval = 5 * time.Second

// Poller periodically fetches the collection and folds volatile like
// metadata back into the snapshot. It never touches other fields: a stale
// poll must not revert a user's concurrent edit, so full-record refresh
// happens only through Pipeline.Refresh or a settled mutation's response.
type Poller struct {
	store    *collection.Store
	remote   RemoteService
	sessions SessionSource
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller constructs a poller over the given store and service.
func NewPoller(store *collection.Store, svc RemoteService, sessions SessionSource, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		store:    store,
		remote:   svc,
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until the context is cancelled. Fetch failures are transient:
// they are logged, the snapshot stays untouched, and the next tick retries.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn("reconciliation fetch failed", "error", err)
			}
		}
	}
}

// Tick performs one reconciliation pass.
func (p *Poller) Tick(ctx context.Context) error {
	var token string
	if session, ok := p.sessions.Current(); ok {
		token = session.Token
	}

	fetched, err := p.remote.FetchAll(ctx, token)
	if err != nil {
		return err
	}

	p.merge(fetched)
	return nil
}

// merge folds the fetched collection into the snapshot:
//   - known records get only their like count and liked flag patched,
//     skipped entirely while a mutation is outstanding on their id;
//   - unseen records are inserted whole, since a brand-new record cannot
//     clobber a local edit;
//   - local records missing from the result are treated as server-deleted
//     and removed, unless a create or delete is in flight for that id.
func (p *Poller) merge(fetched []models.Recipe) {
	seen := make(map[string]struct{}, len(fetched))
	for _, r := range fetched {
		seen[r.ID] = struct{}{}

		if _, busy := p.store.InFlight(r.ID); busy {
			continue
		}

		if _, ok := p.store.Get(r.ID); ok {
			likes := r.Likes
			liked := r.LikedByUser
			p.store.ApplyPatch(r.ID, collection.Patch{Likes: &likes, LikedByUser: &liked})
		} else {
			p.store.Insert(r)
		}
	}

	for _, local := range p.store.Snapshot() {
		if _, ok := seen[local.ID]; ok {
			continue
		}
		if kind, busy := p.store.InFlight(local.ID); busy &&
			(kind == collection.MutationCreate || kind == collection.MutationDelete) {
			// A create's placeholder is not on the server yet; a delete
			// already removed it locally. Either way absence is expected.
			continue
		}
		p.store.Remove(local.ID)
	}
}
