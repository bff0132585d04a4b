package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultModel    = "anthropic/claude-3-haiku-20240307"
	activeModelsKey = "openrouter:active_models"
)

type Reason string

const (
	ReasonNone         Reason = ""
	ReasonUnavailable  Reason = "unavailable"
	ReasonIncompatible Reason = "incompatible"
)

// Resolution is the outcome of resolving a requested model.
type Resolution struct {
	Requested     string
	RequestedName string
	Selected      string
	SelectedName  string
	Class         ContentClass
	Reason        Reason
}

func (r Resolution) NeedsFallback() bool {
	return r.Selected != r.Requested
}

// Implicit is true when the caller named no model, so there is nothing to
// confirm.
func (r Resolution) Implicit() bool {
	return r.Requested == ""
}

type Config struct {
	Store        Store
	Fetcher      Fetcher
	Cache        Cache
	Policy       *Policy
	DefaultModel string
	TTL          time.Duration
}

type Resolver struct {
	store        Store
	fetcher      Fetcher
	cache        Cache
	policy       *Policy
	defaultModel string
	ttl          time.Duration
	group        singleflight.Group
}

func NewResolver(cfg Config) *Resolver {
	r := &Resolver{
		store:        cfg.Store,
		fetcher:      cfg.Fetcher,
		cache:        cfg.Cache,
		policy:       cfg.Policy,
		defaultModel: cfg.DefaultModel,
		ttl:          cfg.TTL,
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	if r.policy == nil {
		r.policy = NewPolicy(nil, nil, nil)
	}
	if r.defaultModel == "" {
		r.defaultModel = DefaultModel
	}
	if r.ttl <= 0 {
		r.ttl = time.Hour
	}
	return r
}

func (r *Resolver) Policy() *Policy {
	return r.policy
}

// ListActiveModels returns the active model ids from the cache, then the
// database, then the upstream catalog. Each lower tier that answers refills
// the tiers above it. When every tier fails the set is empty.
func (r *Resolver) ListActiveModels(ctx context.Context) Set {
	ids, ok, err := r.cache.Get(ctx, activeModelsKey)
	if err != nil {
		log.Warnf("active model cache read failed: %v", err)
	}
	if ok && len(ids) > 0 {
		return NewSet(ids...)
	}

	v, err, _ := r.group.Do(activeModelsKey, func() (any, error) {
		return r.loadActive(ctx)
	})
	if err != nil {
		log.Errorf("no active model list available: %v", err)
		return NewSet()
	}
	return NewSet(v.([]string)...)
}

func (r *Resolver) loadActive(ctx context.Context) ([]string, error) {
	var dbErr error
	if r.store != nil {
		ids, err := r.store.ActiveIDs(ctx)
		if err == nil && len(ids) > 0 {
			r.putCache(ctx, ids)
			return ids, nil
		}
		dbErr = err
	}
	if r.fetcher == nil {
		return nil, errors.Join(dbErr, errors.New("no upstream catalog configured"))
	}
	_, ids, err := r.refresh(ctx)
	if err != nil {
		return nil, errors.Join(dbErr, err)
	}
	return ids, nil
}

// Refresh fetches the upstream catalog, syncs it to the store and replaces
// the cached active list.
func (r *Resolver) Refresh(ctx context.Context) (model.CatalogSyncResult, error) {
	res, _, err := r.refresh(ctx)
	return res, err
}

func (r *Resolver) refresh(ctx context.Context) (model.CatalogSyncResult, []string, error) {
	var res model.CatalogSyncResult
	if r.fetcher == nil {
		return res, nil, errors.New("no upstream catalog configured")
	}
	models, err := r.fetcher.FetchCatalog(ctx)
	if err != nil {
		return res, nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if len(models) == 0 {
		return res, nil, errors.New("upstream catalog is empty")
	}
	if r.store != nil {
		synced, err := r.store.Sync(ctx, models)
		if err != nil {
			// the fetched list still serves this process
			log.Errorf("catalog sync failed: %v", err)
		}
		res = synced
	}
	ids := lo.Uniq(lo.Map(models, func(m model.ModelDescriptor, _ int) string { return m.ModelID }))
	sort.Strings(ids)
	if res.Total == 0 {
		res.Total = len(ids)
	}
	r.putCache(ctx, ids)
	return res, ids, nil
}

func (r *Resolver) putCache(ctx context.Context, ids []string) {
	if err := r.cache.Put(ctx, activeModelsKey, ids, r.ttl); err != nil {
		log.Warnf("active model cache write failed: %v", err)
	}
}

func IsAvailable(id string, set Set) bool {
	return set.Has(id)
}

// SelectFallback returns requested when it is active. Otherwise it walks the
// priority list of class, then takes the first active id, and with nothing
// active returns the default model.
func (r *Resolver) SelectFallback(requested string, class ContentClass, set Set) string {
	if IsAvailable(requested, set) {
		return requested
	}
	for _, candidate := range r.policy.List(class) {
		if set.Has(candidate) {
			return candidate
		}
	}
	if ids := set.IDs(); len(ids) > 0 {
		return ids[0]
	}
	return r.defaultModel
}

// Resolve decides which model serves req. A requested model that is active
// but cannot take the content is treated as unavailable unless it is the only
// active model, and candidates that are known to be incompatible are skipped
// when any compatible one exists.
func (r *Resolver) Resolve(ctx context.Context, req model.ChatRequest) Resolution {
	requested := strings.TrimSpace(req.Model)
	class, needs := Classify(req)
	set := r.ListActiveModels(ctx)

	res := Resolution{Requested: requested, Class: class}
	compatible := func(id string) bool {
		d, ok := r.describe(id)
		return !ok || Compatible(d, needs)
	}

	candidates := set
	switch {
	case requested == "" || !set.Has(requested):
		res.Reason = ReasonUnavailable
	case !compatible(requested) && set.Len() > 1:
		res.Reason = ReasonIncompatible
		candidates = set.Without(requested)
	}
	if filtered := candidates.Filter(compatible); filtered.Len() > 0 {
		candidates = filtered
	}
	if res.Reason == ReasonNone {
		res.Selected = requested
	} else {
		res.Selected = r.SelectFallback(requested, class, candidates)
	}
	if res.Selected == requested {
		res.Reason = ReasonNone
	}

	res.RequestedName = r.displayName(requested)
	res.SelectedName = r.displayName(res.Selected)
	if res.NeedsFallback() {
		log.Debugf("model %q %s for %s content, similar active models: %v", requested, res.Reason, class, Similar(requested, set, 3))
	}
	return res
}

func (r *Resolver) describe(id string) (model.ModelDescriptor, bool) {
	if r.store == nil {
		return model.ModelDescriptor{}, false
	}
	return r.store.Describe(id)
}

func (r *Resolver) displayName(id string) string {
	if d, ok := r.describe(id); ok && d.DisplayName != "" {
		return d.DisplayName
	}
	return id
}

// Similar suggests up to limit active ids close to id: same vendor first,
// then shared name tokens. It is diagnostic only.
func Similar(id string, set Set, limit int) []string {
	vendor, name, _ := strings.Cut(id, "/")
	tokens := lo.Filter(strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '-' || r == '.' || r == ':' || r == '_'
	}), func(t string, _ int) bool { return len(t) > 1 })

	type scored struct {
		id    string
		score int
	}
	var out []scored
	for _, cand := range set.IDs() {
		if cand == id {
			continue
		}
		cv, cn, _ := strings.Cut(cand, "/")
		score := 0
		if vendor != "" && cv == vendor {
			score += 2
		}
		for _, t := range tokens {
			if strings.Contains(strings.ToLower(cn), t) {
				score++
			}
		}
		if score > 0 {
			out = append(out, scored{cand, score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > limit {
		out = out[:limit]
	}
	return lo.Map(out, func(s scored, _ int) string { return s.id })
}
