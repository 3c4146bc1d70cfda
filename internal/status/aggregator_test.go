package status

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/egeskov/localenv/internal/docker"
	"github.com/egeskov/localenv/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	pingErr error
	units   map[string][]docker.Unit
	errs    map[string]error
	delays  map[string]time.Duration
	// hang blocks the query for these names without watching the context
	hang    map[string]bool
	release chan struct{}

	mu       sync.Mutex
	calls    []string
	inFlight int32
	maxSeen  int32
}

func (f *fakeRuntime) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeRuntime) ListRunningUnits(ctx context.Context, name string) ([]docker.Unit, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}

	if f.hang[name] {
		<-f.release
	}
	if d := f.delays[name]; d > 0 {
		time.Sleep(d)
	}
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.units[name], nil
}

func (f *fakeRuntime) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRegistry struct {
	ids     []registry.EnvironmentID
	listErr error
	hosts   map[registry.EnvironmentID][]string
}

func (f *fakeRegistry) ListEnvironments() ([]registry.EnvironmentID, error) {
	return f.ids, f.listErr
}

func (f *fakeRegistry) ResolveConfig(id registry.EnvironmentID) (registry.EnvironmentConfig, error) {
	hosts, ok := f.hosts[id]
	if !ok {
		return registry.EnvironmentConfig{}, fmt.Errorf("%w: %s", registry.ErrConfigNotFound, id)
	}
	return registry.EnvironmentConfig{Hosts: hosts}, nil
}

func twoSites() *fakeRegistry {
	return &fakeRegistry{
		ids: []registry.EnvironmentID{"site-a", "site-b"},
		hosts: map[registry.EnvironmentID][]string{
			"site-a": {"site-a.test", "www.site-a.test"},
			"site-b": {"site-b.test"},
		},
	}
}

func running(name string) []docker.Unit {
	return []docker.Unit{{ID: "abc", Name: name + "-nginx-1", State: "running"}}
}

func TestAggregate_UpAndDown(t *testing.T) {
	rt := &fakeRuntime{units: map[string][]docker.Unit{"site-a": running("site-a")}}
	agg := NewAggregator(rt, twoSites())

	got, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []EnvironmentStatus{
		{ID: "site-a", State: StateUp, PrimaryURL: "http://site-a.test/"},
		{ID: "site-b", State: StateDown, PrimaryURL: "http://site-b.test/"},
	}, got)
}

func TestAggregate_RuntimeUnavailable(t *testing.T) {
	cause := errors.New("Cannot connect to the Docker daemon")
	rt := &fakeRuntime{pingErr: cause}
	reg := &fakeRegistry{ids: []registry.EnvironmentID{"site-a"}}

	got, err := NewAggregator(rt, reg).Aggregate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuntimeUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, got)
	assert.Zero(t, rt.callCount(), "no environment should be queried when the runtime is down")
}

func TestAggregate_RegistryUnavailable(t *testing.T) {
	reg := &fakeRegistry{listErr: fmt.Errorf("%w: permission denied", registry.ErrRegistryUnavailable)}

	got, err := NewAggregator(&fakeRuntime{}, reg).Aggregate(context.Background())
	assert.ErrorIs(t, err, registry.ErrRegistryUnavailable)
	assert.NotErrorIs(t, err, ErrRuntimeUnavailable)
	assert.Nil(t, got)
}

func TestAggregate_QueryErrorIsIsolated(t *testing.T) {
	transport := errors.New("connection reset by peer")
	rt := &fakeRuntime{
		units: map[string][]docker.Unit{"site-a": running("site-a")},
		errs:  map[string]error{"site-b": transport},
	}

	got, err := NewAggregator(rt, twoSites()).Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, StateUp, got[0].State)
	assert.NoError(t, got[0].Err)

	assert.Equal(t, registry.EnvironmentID("site-b"), got[1].ID)
	assert.Equal(t, StateError, got[1].State)
	assert.Equal(t, "http://site-b.test/", got[1].PrimaryURL)
	assert.ErrorIs(t, got[1].Err, transport)
}

func TestAggregate_UnresolvableConfigStillReported(t *testing.T) {
	reg := twoSites()
	delete(reg.hosts, "site-a")
	rt := &fakeRuntime{units: map[string][]docker.Unit{"site-a": running("site-a")}}

	got, err := NewAggregator(rt, reg).Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, registry.EnvironmentID("site-a"), got[0].ID)
	assert.Equal(t, StateUp, got[0].State, "runtime lookup uses the raw identifier")
	assert.Empty(t, got[0].PrimaryURL)
	assert.ErrorIs(t, got[0].Err, registry.ErrConfigNotFound)
	assert.Equal(t, StateDown, got[1].State)
}

func TestAggregate_EmptyRegistry(t *testing.T) {
	got, err := NewAggregator(&fakeRuntime{}, &fakeRegistry{}).Aggregate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAggregate_PreservesRegistryOrder(t *testing.T) {
	reg := &fakeRegistry{hosts: map[registry.EnvironmentID][]string{}}
	rt := &fakeRuntime{delays: map[string]time.Duration{}, units: map[string][]docker.Unit{}}
	for i := 0; i < 12; i++ {
		id := registry.EnvironmentID(fmt.Sprintf("site-%02d", i))
		reg.ids = append(reg.ids, id)
		reg.hosts[id] = []string{string(id) + ".test"}
		// Earlier environments finish last
		rt.delays[string(id)] = time.Duration(12-i) * time.Millisecond
		if i%2 == 0 {
			rt.units[string(id)] = running(string(id))
		}
	}

	got, err := NewAggregator(rt, reg, WithConcurrency(6)).Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, got, len(reg.ids))
	for i, st := range got {
		assert.Equal(t, reg.ids[i], st.ID)
		if i%2 == 0 {
			assert.Equal(t, StateUp, st.State, st.ID)
		} else {
			assert.Equal(t, StateDown, st.State, st.ID)
		}
	}
}

func TestAggregate_ConcurrencyLimit(t *testing.T) {
	reg := &fakeRegistry{hosts: map[registry.EnvironmentID][]string{}}
	rt := &fakeRuntime{delays: map[string]time.Duration{}}
	for i := 0; i < 8; i++ {
		id := registry.EnvironmentID(fmt.Sprintf("env-%d", i))
		reg.ids = append(reg.ids, id)
		rt.delays[string(id)] = 5 * time.Millisecond
	}

	_, err := NewAggregator(rt, reg, WithConcurrency(1)).Aggregate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&rt.maxSeen))
	assert.Equal(t, 8, rt.callCount())

	rt = &fakeRuntime{delays: rt.delays}
	_, err = NewAggregator(rt, reg, WithConcurrency(3)).Aggregate(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&rt.maxSeen), int32(3))
}

func TestAggregate_TimeoutBecomesError(t *testing.T) {
	rt := &fakeRuntime{
		units:   map[string][]docker.Unit{"site-a": running("site-a")},
		hang:    map[string]bool{"site-b": true},
		release: make(chan struct{}),
	}
	defer close(rt.release)

	start := time.Now()
	got, err := NewAggregator(rt, twoSites(), WithQueryTimeout(50*time.Millisecond)).Aggregate(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.Len(t, got, 2)
	assert.Equal(t, StateUp, got[0].State)
	assert.Equal(t, StateError, got[1].State)
	assert.ErrorIs(t, got[1].Err, context.DeadlineExceeded)
}

func TestAggregate_Idempotent(t *testing.T) {
	rt := &fakeRuntime{
		units: map[string][]docker.Unit{"site-a": running("site-a")},
		errs:  map[string]error{"site-b": errors.New("daemon error")},
	}
	agg := NewAggregator(rt, twoSites())

	first, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregate_OneStatusPerEnvironment(t *testing.T) {
	tests := []struct {
		name string
		ids  []registry.EnvironmentID
		errs map[string]error
	}{
		{name: "single", ids: []registry.EnvironmentID{"a"}},
		{name: "all failing", ids: []registry.EnvironmentID{"a", "b", "c"}, errs: map[string]error{
			"a": errors.New("x"), "b": errors.New("y"), "c": errors.New("z"),
		}},
		{name: "duplicates kept", ids: []registry.EnvironmentID{"a", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &fakeRuntime{errs: tt.errs}
			got, err := NewAggregator(rt, &fakeRegistry{ids: tt.ids}).Aggregate(context.Background())
			require.NoError(t, err)
			require.Len(t, got, len(tt.ids))
			for i := range tt.ids {
				assert.Equal(t, tt.ids[i], got[i].ID)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "UP", StateUp.String())
	assert.Equal(t, "DOWN", StateDown.String())
	assert.Equal(t, "ERROR", StateError.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestURLForHost(t *testing.T) {
	assert.Equal(t, "http://site-a.test/", URLForHost("site-a.test"))
	assert.Equal(t, "", URLForHost(""))
}
