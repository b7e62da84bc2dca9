package presets

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/intervaltimer/internal/telemetry/metrics"
	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/internal/timer"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=presets_test

type presetsRepo interface {
	Add(ctx context.Context, preset Preset) error
	Get(ctx context.Context, name string) (*Preset, error)
	List(ctx context.Context) ([]Preset, error)
	Delete(ctx context.Context, name string) error
}

// Service resolves presets from the built-in table first, then the cache, then the repo.
type Service struct {
	repo    presetsRepo
	cache   *Cache
	metrics *metrics.Manager
	now     func() time.Time
}

func NewService(repo presetsRepo, cache *Cache, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		metrics: metricsManager,
		now:     time.Now,
	}
}

func (s *Service) Get(ctx context.Context, name string) (_ *Preset, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.presets.get")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("name", name))

	if p, ok := BuiltIn(name); ok {
		return &p, nil
	}

	if s.cache != nil {
		if p, ok := s.cache.Get(name); ok {
			s.cacheLookup("hit")
			return p, nil
		}
		s.cacheLookup("miss")
	}

	p, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(*p)
	}
	return p, nil
}

// List returns built-in presets followed by stored ones.
func (s *Service) List(ctx context.Context) (_ []Preset, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.presets.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Name < stored[j].Name
	})

	return append(BuiltIns(), stored...), nil
}

func (s *Service) Add(ctx context.Context, preset Preset) (_ *Preset, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.presets.add")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !ValidName(preset.Name) {
		return nil, ErrInvalidName
	}
	if _, ok := BuiltIn(preset.Name); ok {
		return nil, ErrBuiltInPreset
	}

	cfg, err := timer.Validate(preset.Config)
	if err != nil {
		return nil, err
	}
	preset.Config = cfg
	preset.BuiltIn = false
	preset.CreatedAt = s.now().UTC().Truncate(time.Second)

	if err := s.repo.Add(ctx, preset); err != nil {
		return nil, err
	}
	return &preset, nil
}

func (s *Service) Delete(ctx context.Context, name string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.presets.delete")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if _, ok := BuiltIn(name); ok {
		return ErrBuiltInPreset
	}
	if s.cache != nil {
		s.cache.Del(name)
	}
	return s.repo.Delete(ctx, name)
}

func (s *Service) cacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.CounterPresetCache.WithLabelValues(result).Inc()
	}
}
