package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/valtyr/pcb-jlcpcb/pkg/cache"
	"go.uber.org/zap"
)

// Resolver looks up parts through the cache. A hit younger than the TTL
// skips the network entirely; refresh mode skips the read but still writes
// the fresh record back.
type Resolver struct {
	client  *Client
	store   *cache.Store
	refresh bool
	log     *zap.Logger
}

// NewResolver wraps a client with the part cache.
func NewResolver(client *Client, store *cache.Store, refresh bool, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{client: client, store: store, refresh: refresh, log: log}
}

// Resolve returns the part for a supplier part number, consulting the
// "parts" cache namespace first. Failed lookups are never cached.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Part, error) {
	id = NormalizeID(id)

	if !r.refresh {
		var part Part
		if r.store.GetJSON(cache.NamespaceParts, id, &part) {
			r.log.Debug("part cache hit", zap.String("lcsc", id))
			return &part, nil
		}
	}

	part, err := r.client.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.store.PutJSON(cache.NamespaceParts, id, part); err != nil {
		// A failed cache write degrades to an uncached lookup.
		r.log.Warn("part cache write failed", zap.String("lcsc", id), zap.Error(err))
	}
	return part, nil
}

// Enrich merges detail-endpoint attributes into the part and refreshes the
// cached record so later lookups keep the attributes.
func (r *Resolver) Enrich(ctx context.Context, part *Part) error {
	if err := r.client.Enrich(ctx, part); err != nil {
		return err
	}
	if err := r.store.PutJSON(cache.NamespaceParts, part.LCSC, part); err != nil {
		r.log.Warn("part cache write failed", zap.String("lcsc", part.LCSC), zap.Error(err))
	}
	return nil
}

// ResolveMPN finds the part for a manufacturer part number via search. An
// exact MPN match is required: no match is ErrNotFound, several distinct
// supplier codes matching the same MPN is ErrAmbiguous. MPN lookups bypass
// the cache; the supplier code, not the MPN, is the cache key.
func (r *Resolver) ResolveMPN(ctx context.Context, mpn string) (*Part, error) {
	page, err := r.client.Search(ctx, mpn, Filters{Page: 1, Limit: 10})
	if err != nil {
		return nil, err
	}

	var matches []Part
	for _, p := range page.Parts {
		if strings.EqualFold(p.MPN, mpn) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: mpn %s", ErrNotFound, mpn)
	case 1:
		part := matches[0]
		return &part, nil
	default:
		return nil, fmt.Errorf("%w: mpn %s matches %d parts", ErrAmbiguous, mpn, len(matches))
	}
}
