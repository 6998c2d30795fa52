package predict

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/authhub/internal/cache"
)

var ErrNoModel = errors.New("no model loaded")

type Observer interface {
	ObservePrediction(result string)
}

// Info describes the loaded model.
type Info struct {
	Path string         `json:"path"`
	Type string         `json:"type"`
	Meta map[string]any `json:"meta"`
}

// clearer is implemented by caches that can drop everything at once.
type clearer interface {
	Clear()
}

type Service struct {
	mu    sync.RWMutex
	model Model
	path  string
	meta  map[string]any
	// bumped on every load so results of a replaced model are never served
	generation uint64

	cache    cache.Cache
	cacheTTL time.Duration
	log      *slog.Logger
	observer Observer
}

func NewService(c cache.Cache, cacheTTL time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{cache: c, cacheTTL: cacheTTL, log: log}
}

func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Init loads the first model found in dirs. Having none is not an error;
// predictions answer ErrNoModel until one is loaded.
func (s *Service) Init(dirs []string) {
	path, ok := FindModelFile(dirs)

	if !ok {
		s.log.Warn("no model found at startup, /predict will return 503 until a model is available", "dirs", dirs)
		return
	}

	if err := s.Load(path); err != nil {
		s.log.Error("failed to load model at startup", "path", path, "err", err)
	}
}

func (s *Service) Load(path string) error {
	m, resolved, err := LoadModel(path)

	if err != nil {
		return err
	}

	meta := FindMetadata(resolved)

	s.mu.Lock()
	replaced := s.model != nil
	s.model = m
	s.path = resolved
	s.meta = meta
	s.generation++
	s.mu.Unlock()

	if c, ok := s.cache.(clearer); ok && replaced {
		c.Clear()
	}

	s.log.Info("model loaded", "path", resolved, "type", m.Kind())

	return nil
}

func (s *Service) Info() (Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.model == nil {
		return Info{}, false
	}

	return Info{Path: s.path, Type: s.model.Kind(), Meta: s.meta}, true
}

func (s *Service) Predict(ctx context.Context, in Input) (Outcome, error) {
	s.mu.RLock()
	m, path, gen := s.model, s.path, s.generation
	s.mu.RUnlock()

	if m == nil {
		s.observe("no_model")
		return Outcome{}, ErrNoModel
	}

	f := Derive(in)
	key := cacheKey(path, gen, f)

	if out, ok := s.cached(ctx, key); ok {
		s.observe("cache_hit")
		return out, nil
	}

	out, err := m.Predict(f)

	if err != nil {
		s.observe("error")
		return Outcome{}, fmt.Errorf("prediction failed: %w", err)
	}

	s.store(ctx, key, out)
	s.observe("ok")

	return out, nil
}

// cache failures degrade to computing the prediction
func (s *Service) cached(ctx context.Context, key string) (Outcome, bool) {
	if s.cache == nil {
		return Outcome{}, false
	}

	raw, ok, err := s.cache.Get(ctx, key)

	if err != nil {
		s.log.WarnContext(ctx, "prediction cache read failed", "err", err)
		return Outcome{}, false
	}

	if !ok {
		return Outcome{}, false
	}

	var out Outcome

	if err := json.Unmarshal(raw, &out); err != nil {
		return Outcome{}, false
	}

	return out, true
}

func (s *Service) store(ctx context.Context, key string, out Outcome) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(out)

	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.log.WarnContext(ctx, "prediction cache write failed", "err", err)
	}
}

func (s *Service) observe(result string) {
	if s.observer != nil {
		s.observer.ObservePrediction(result)
	}
}

func cacheKey(modelPath string, generation uint64, f Features) string {
	b, _ := json.Marshal(f)
	sum := sha256.Sum256(append([]byte(fmt.Sprintf("%s|%d|", modelPath, generation)), b...))

	return "predict:" + hex.EncodeToString(sum[:])
}
