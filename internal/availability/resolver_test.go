package availability

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	active []string
	err    error
	descs  map[string]model.ModelDescriptor
	synced []model.ModelDescriptor
}

func (f *fakeStore) ActiveIDs(context.Context) ([]string, error) {
	return f.active, f.err
}

func (f *fakeStore) Sync(_ context.Context, models []model.ModelDescriptor) (model.CatalogSyncResult, error) {
	f.synced = models
	f.active = nil
	for _, m := range models {
		f.active = append(f.active, m.ModelID)
	}
	return model.CatalogSyncResult{Total: len(models)}, nil
}

func (f *fakeStore) Describe(id string) (model.ModelDescriptor, bool) {
	d, ok := f.descs[id]
	return d, ok
}

type fakeFetcher struct {
	models []model.ModelDescriptor
	err    error
	calls  atomic.Int32
}

func (f *fakeFetcher) FetchCatalog(context.Context) ([]model.ModelDescriptor, error) {
	f.calls.Add(1)
	return f.models, f.err
}

func defaultPolicy() *Policy {
	return NewPolicy(
		[]string{"openai/gpt-4o", "anthropic/claude-3.5-sonnet"},
		[]string{"anthropic/claude-3.5-sonnet", "openai/gpt-4o"},
		[]string{"openai/gpt-4o-2024-05-13", "anthropic/claude-3-haiku-20240307", "google/gemini-pro"},
	)
}

func TestSelectFallbackScenario(t *testing.T) {
	r := NewResolver(Config{Policy: defaultPolicy()})
	set := NewSet("openai/gpt-4o-2024-05-13", "google/gemini-pro")

	got := r.SelectFallback("anthropic/claude-3-haiku-20240307", ClassText, set)
	require.Equal(t, "openai/gpt-4o-2024-05-13", got)
}

func TestSelectFallbackReturnsRequestedWhenActive(t *testing.T) {
	r := NewResolver(Config{Policy: defaultPolicy()})
	set := NewSet("google/gemini-pro", "mistral/mixtral")
	require.Equal(t, "mistral/mixtral", r.SelectFallback("mistral/mixtral", ClassImage, set))
}

func TestSelectFallbackFirstActiveWhenNoPriorityMatch(t *testing.T) {
	r := NewResolver(Config{Policy: defaultPolicy()})
	set := NewSet("zeta/z-1", "alpha/a-1")
	require.Equal(t, "alpha/a-1", r.SelectFallback("missing/model", ClassImage, set))
}

func TestSelectFallbackEmptySetReturnsDefault(t *testing.T) {
	r := NewResolver(Config{Policy: defaultPolicy()})
	require.Equal(t, DefaultModel, r.SelectFallback("openai/gpt-4o", ClassText, NewSet()))

	r = NewResolver(Config{DefaultModel: "x/default"})
	require.Equal(t, "x/default", r.SelectFallback("openai/gpt-4o", ClassText, NewSet()))
}

func TestSelectFallbackAlwaysReturnsMemberOrDefault(t *testing.T) {
	r := NewResolver(Config{Policy: defaultPolicy()})
	sets := []Set{
		NewSet(),
		NewSet("a/b"),
		NewSet("openai/gpt-4o", "a/b"),
		NewSet("anthropic/claude-3.5-sonnet"),
	}
	for _, set := range sets {
		for _, class := range []ContentClass{ClassImage, ClassPDFOrRAG, ClassText} {
			for _, req := range []string{"", "a/b", "nope/nope", "openai/gpt-4o"} {
				got := r.SelectFallback(req, class, set)
				if set.Len() == 0 {
					require.Equal(t, DefaultModel, got)
				} else {
					require.True(t, set.Has(got), "%s not in %v", got, set.IDs())
				}
				if set.Has(req) {
					require.Equal(t, req, got)
				}
			}
		}
	}
}

func TestListActiveModelsTiers(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{active: []string{"openai/gpt-4o"}}
	fetcher := &fakeFetcher{models: []model.ModelDescriptor{{ModelID: "google/gemini-pro"}}}
	c := NewMemoryCache()
	r := NewResolver(Config{Store: store, Fetcher: fetcher, Cache: c, TTL: time.Minute})

	set := r.ListActiveModels(ctx)
	require.Equal(t, []string{"openai/gpt-4o"}, set.IDs())
	require.Zero(t, fetcher.calls.Load())

	cached, ok, err := c.Get(ctx, activeModelsKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"openai/gpt-4o"}, cached)

	// cache answers even after the store changes
	store.active = []string{"other/model"}
	require.Equal(t, []string{"openai/gpt-4o"}, r.ListActiveModels(ctx).IDs())
}

func TestListActiveModelsRepopulatesFromUpstream(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	fetcher := &fakeFetcher{models: []model.ModelDescriptor{{ModelID: "b/two"}, {ModelID: "a/one"}}}
	r := NewResolver(Config{Store: store, Fetcher: fetcher})

	set := r.ListActiveModels(ctx)
	require.Equal(t, []string{"a/one", "b/two"}, set.IDs())
	require.Len(t, store.synced, 2)
	require.Equal(t, int32(1), fetcher.calls.Load())
}

func TestListActiveModelsTotalFailureIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{err: errors.New("db down")}
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	r := NewResolver(Config{Store: store, Fetcher: fetcher})

	set := r.ListActiveModels(ctx)
	require.Zero(t, set.Len())
	require.Equal(t, DefaultModel, r.SelectFallback("openai/gpt-4o", ClassText, set))
}

func TestResolveIncompatibleImageModel(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		active: []string{"meta/llama-3-8b", "openai/gpt-4o", "anthropic/claude-3.5-sonnet"},
		descs: map[string]model.ModelDescriptor{
			"meta/llama-3-8b":             {ModelID: "meta/llama-3-8b", DisplayName: "Llama 3 8B"},
			"openai/gpt-4o":               {ModelID: "openai/gpt-4o", DisplayName: "GPT-4o", IsMultimodal: true, SupportsPDF: true},
			"anthropic/claude-3.5-sonnet": {ModelID: "anthropic/claude-3.5-sonnet", IsMultimodal: true, SupportsPDF: true},
		},
	}
	r := NewResolver(Config{Store: store, Policy: defaultPolicy()})

	res := r.Resolve(ctx, model.ChatRequest{Model: "meta/llama-3-8b", Message: "what is this", ImageURL: "https://example.com/cat.png"})
	require.Equal(t, ClassImage, res.Class)
	require.True(t, res.NeedsFallback())
	require.Equal(t, ReasonIncompatible, res.Reason)
	require.Equal(t, "openai/gpt-4o", res.Selected)
	require.Equal(t, "Llama 3 8B", res.RequestedName)
	require.Equal(t, "GPT-4o", res.SelectedName)

	res = r.Resolve(ctx, model.ChatRequest{Model: "meta/llama-3-8b", Message: "hi"})
	require.False(t, res.NeedsFallback())
	require.Equal(t, ReasonNone, res.Reason)

	res = r.Resolve(ctx, model.ChatRequest{Model: "gone/model", Message: "hi"})
	require.Equal(t, ReasonUnavailable, res.Reason)
	require.Equal(t, "gone/model", res.RequestedName)
}

func TestResolveIncompatibleOnlyActiveModelStaysInSet(t *testing.T) {
	store := &fakeStore{
		active: []string{"meta/llama-3-8b"},
		descs: map[string]model.ModelDescriptor{
			"meta/llama-3-8b": {ModelID: "meta/llama-3-8b"},
		},
	}
	r := NewResolver(Config{Store: store, Policy: defaultPolicy()})

	res := r.Resolve(context.Background(), model.ChatRequest{Model: "meta/llama-3-8b", Message: "what is this", ImageURL: "https://example.com/cat.png"})
	require.Equal(t, "meta/llama-3-8b", res.Selected)
	require.Equal(t, ReasonNone, res.Reason)
	require.False(t, res.NeedsFallback())

	res = r.Resolve(context.Background(), model.ChatRequest{Model: "gone/model", Message: "what is this", ImageURL: "https://example.com/cat.png"})
	require.Equal(t, "meta/llama-3-8b", res.Selected)
	require.Equal(t, ReasonUnavailable, res.Reason)
}

func TestResolveImplicitModel(t *testing.T) {
	r := NewResolver(Config{Store: &fakeStore{active: []string{"openai/gpt-4o-2024-05-13"}}, Policy: defaultPolicy()})
	res := r.Resolve(context.Background(), model.ChatRequest{Message: "hi"})
	require.True(t, res.Implicit())
	require.Equal(t, "openai/gpt-4o-2024-05-13", res.Selected)
}

func TestRefreshRequiresFetcher(t *testing.T) {
	r := NewResolver(Config{})
	_, err := r.Refresh(context.Background())
	require.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	c := NewRedisCache(client, "gm:")

	_, ok, err := c.Get(ctx, activeModelsKey)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Put(ctx, activeModelsKey, []string{"a/one", "b/two"}, time.Minute))
	require.True(t, mr.Exists("gm:"+activeModelsKey))

	ids, ok, err := c.Get(ctx, activeModelsKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"a/one", "b/two"}, ids)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, activeModelsKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolverWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &fakeStore{active: []string{"openai/gpt-4o"}}
	r := NewResolver(Config{Store: store, Cache: NewRedisCache(client, "gm:")})
	require.Equal(t, []string{"openai/gpt-4o"}, r.ListActiveModels(context.Background()).IDs())

	// a second instance sharing redis never touches its own store
	other := NewResolver(Config{Store: &fakeStore{err: errors.New("unused")}, Cache: NewRedisCache(client, "gm:")})
	require.Equal(t, []string{"openai/gpt-4o"}, other.ListActiveModels(context.Background()).IDs())
}

func TestSimilar(t *testing.T) {
	set := NewSet("anthropic/claude-3.5-sonnet", "anthropic/claude-3-opus", "openai/gpt-4o", "google/gemini-pro")
	got := Similar("anthropic/claude-3-haiku", set, 2)
	require.Len(t, got, 2)
	require.Contains(t, got, "anthropic/claude-3-opus")
	require.Empty(t, Similar("zzz/qqq", set, 3))
}

func TestPolicyUpdate(t *testing.T) {
	p := NewPolicy([]string{" a/b ", "a/b", ""}, nil, []string{"t/x"})
	require.Equal(t, []string{"a/b"}, p.List(ClassImage))
	p.Update(nil, nil, []string{"t/y"})
	require.Equal(t, []string{"t/y"}, p.List(ClassText))
	require.Empty(t, p.List(ClassImage))
}
