package encoding

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/born-ml/gptok/internal/bpe"
)

// RankLoader supplies the raw rank data of a scheme. file is the scheme's
// RankFile; the returned map holds raw bytes in its string keys.
//
// The method set matches tiktoken-go's BpeLoader, so any loader written for
// that package works here unchanged.
type RankLoader interface {
	LoadTiktokenBpe(file string) (map[string]int, error)
}

// OfflineLoader returns the default loader, which serves every scheme's rank
// file from data embedded in the binary. It never touches the network or the
// filesystem.
func OfflineLoader() RankLoader {
	return tiktoken_loader.NewOfflineLoader()
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader sets the rank data source.
func WithLoader(l RankLoader) Option {
	return func(r *Registry) {
		r.loader = l
	}
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// Registry resolves scheme names to profiles. Each profile is built on first
// use and then cached; rank tables are cached per rank file, so schemes that
// share ranks (p50k_base and p50k_edit, o200k_base and o200k_harmony) share
// one table.
//
// A Registry is safe for concurrent use.
type Registry struct {
	loader RankLoader
	logger *slog.Logger

	mu       sync.Mutex
	schemes  map[string]Scheme
	profiles map[string]*lazy[*Profile]
	ranks    map[string]*lazy[*bpe.RankTable]
}

type lazy[T any] struct {
	once  sync.Once
	value T
	err   error
}

func (l *lazy[T]) get(build func() (T, error)) (T, error) {
	l.once.Do(func() {
		l.value, l.err = build()
	})
	return l.value, l.err
}

// NewRegistry creates a registry over the built-in schemes.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		schemes:  maps.Clone(schemes),
		profiles: make(map[string]*lazy[*Profile]),
		ranks:    make(map[string]*lazy[*bpe.RankTable]),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.loader == nil {
		r.loader = OfflineLoader()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Register adds a scheme. Names already known to the registry, including
// aliases, are rejected.
func (r *Registry) Register(s Scheme) error {
	if s.Name == "" {
		return errors.New("scheme name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schemes[s.Name]; ok {
		return fmt.Errorf("scheme %q already registered", s.Name)
	}
	if _, ok := aliases[s.Name]; ok {
		return fmt.Errorf("scheme %q already registered", s.Name)
	}

	s.Specials = maps.Clone(s.Specials)
	r.schemes[s.Name] = s
	return nil
}

// Names returns every scheme name the registry resolves, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Sorted(maps.Keys(r.schemes))
}

// Get returns the profile for a scheme name or alias, building it on first
// use. A failed build is cached like a successful one.
func (r *Registry) Get(name string) (*Profile, error) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}

	r.mu.Lock()
	s, ok := r.schemes[name]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	p, ok := r.profiles[name]
	if !ok {
		p = &lazy[*Profile]{}
		r.profiles[name] = p
	}
	r.mu.Unlock()

	return p.get(func() (*Profile, error) {
		return r.build(s)
	})
}

func (r *Registry) build(s Scheme) (*Profile, error) {
	start := time.Now()

	ranks, err := r.rankTable(s.RankFile)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", s.Name, err)
	}

	profile, err := NewProfile(s.Config(ranks))
	if err != nil {
		return nil, err
	}

	r.logger.Debug("built encoding",
		"encoding", s.Name,
		"ranks", ranks.Len(),
		"specials", profile.Specials().Len(),
		"elapsed", time.Since(start))

	return profile, nil
}

func (r *Registry) rankTable(file string) (*bpe.RankTable, error) {
	r.mu.Lock()
	l, ok := r.ranks[file]
	if !ok {
		l = &lazy[*bpe.RankTable]{}
		r.ranks[file] = l
	}
	r.mu.Unlock()

	return l.get(func() (*bpe.RankTable, error) {
		raw, err := r.loader.LoadTiktokenBpe(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load ranks %s: %w", file, err)
		}
		return bpe.NewRankTableFromMap(raw)
	})
}
