package jobs

import (
	"sync"

	"github.com/riftwatch/riftwatch/errors"
)

// Factory builds a Runner for one execution of a job. The typed config has
// already been validated; factories only need to assert their own type.
type Factory func(base *BaseJob, typed TypedConfig, deps Deps) (Runner, error)

// Registry maps job types to their factories
type Registry struct {
	mu        sync.RWMutex
	factories map[JobType]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[JobType]Factory)}
}

// Register adds a factory for a job type. Panics on duplicate registration,
// that is always a programming error.
func (r *Registry) Register(jobType JobType, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[jobType]; exists {
		panic("jobs: duplicate registration for " + string(jobType))
	}
	r.factories[jobType] = factory
}

// New builds a fresh Runner for one execution
func (r *Registry) New(jobType JobType, base *BaseJob, typed TypedConfig, deps Deps) (Runner, error) {
	r.mu.RLock()
	factory, ok := r.factories[jobType]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Newf("no factory registered for job type %q", jobType)
	}
	return factory(base, typed, deps)
}

// Types returns the registered job types
func (r *Registry) Types() []JobType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]JobType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}

// BuiltinRegistry returns a registry with all four job types wired
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeTrackedPlayerUpdater, func(base *BaseJob, typed TypedConfig, deps Deps) (Runner, error) {
		cfg, ok := typed.(*TrackedPlayerUpdaterConfig)
		if !ok {
			return nil, errors.Newf("unexpected config type %T", typed)
		}
		return NewTrackedPlayerUpdater(base, *cfg, deps), nil
	})
	r.Register(TypeMatchFetcher, func(base *BaseJob, typed TypedConfig, deps Deps) (Runner, error) {
		cfg, ok := typed.(*MatchFetcherConfig)
		if !ok {
			return nil, errors.Newf("unexpected config type %T", typed)
		}
		return NewMatchFetcher(base, *cfg, deps), nil
	})
	r.Register(TypePlayerAnalyzer, func(base *BaseJob, typed TypedConfig, deps Deps) (Runner, error) {
		cfg, ok := typed.(*PlayerAnalyzerConfig)
		if !ok {
			return nil, errors.Newf("unexpected config type %T", typed)
		}
		return NewPlayerAnalyzer(base, *cfg, deps), nil
	})
	r.Register(TypeBanChecker, func(base *BaseJob, typed TypedConfig, deps Deps) (Runner, error) {
		cfg, ok := typed.(*BanCheckerConfig)
		if !ok {
			return nil, errors.Newf("unexpected config type %T", typed)
		}
		return NewBanChecker(base, *cfg, deps), nil
	})
	return r
}
