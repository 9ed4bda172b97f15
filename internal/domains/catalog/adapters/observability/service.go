package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	catalogtypes "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
)

const tracerName = "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core catalog service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

// GetRecipe is called once per distinct line during payment, so it only traces.
func (s *Service) GetRecipe(ctx context.Context, menuItemID int64, sizeID *int64) ([]domain.RecipeLine, error) {
	attrs := []attribute.KeyValue{attribute.Int64("menu_item.id", menuItemID)}
	if sizeID != nil {
		attrs = append(attrs, attribute.Int64("size.id", *sizeID))
	}
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetRecipe", trace.WithAttributes(attrs...))
	defer span.End()

	lines, err := s.inner.GetRecipe(ctx, menuItemID, sizeID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to resolve recipe", slog.Int64("menu_item.id", menuItemID))
	}
	span.SetAttributes(attribute.Int("recipe.lines", len(lines)))
	return lines, nil
}

func (s *Service) CreateMenuItem(ctx context.Context, input catalogtypes.CreateMenuItemInput) (*domain.MenuItem, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.CreateMenuItem",
		trace.WithAttributes(attribute.String("menu_item.name", input.Name), attribute.String("menu_item.category", input.Category)))
	defer span.End()

	item, err := s.inner.CreateMenuItem(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create menu item", slog.String("menu_item.name", input.Name))
	}
	s.logInfo(ctx, "menu item created", slog.Int64("menu_item.id", item.ID), slog.Int("sizes", len(item.Sizes)))
	return item, nil
}

func (s *Service) GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetMenuItem", trace.WithAttributes(attribute.Int64("menu_item.id", id)))
	defer span.End()

	item, err := s.inner.GetMenuItem(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load menu item", slog.Int64("menu_item.id", id))
	}
	return item, nil
}

func (s *Service) ListMenu(ctx context.Context) ([]*domain.MenuItem, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListMenu")
	defer span.End()

	items, err := s.inner.ListMenu(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list menu")
	}
	span.SetAttributes(attribute.Int("menu_item.count", len(items)))
	return items, nil
}

func (s *Service) ChangeSizePrice(ctx context.Context, input catalogtypes.ChangeSizePriceInput) (*domain.MenuItem, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ChangeSizePrice",
		trace.WithAttributes(attribute.Int64("menu_item.id", input.MenuItemID), attribute.Int64("size.id", input.SizeID)))
	defer span.End()

	item, err := s.inner.ChangeSizePrice(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reprice size", slog.Int64("menu_item.id", input.MenuItemID), slog.Int64("size.id", input.SizeID))
	}
	s.metrics.recordReprice(ctx)
	s.logInfo(ctx, "size repriced",
		slog.Int64("menu_item.id", input.MenuItemID),
		slog.Int64("size.id", input.SizeID),
		slog.String("price", input.Price.String()))
	return item, nil
}

func (s *Service) ReplaceRecipe(ctx context.Context, input catalogtypes.ReplaceRecipeInput) (*domain.Recipe, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ReplaceRecipe",
		trace.WithAttributes(attribute.Int64("menu_item.id", input.MenuItemID), attribute.Int64("size.id", input.SizeID)))
	defer span.End()

	recipe, err := s.inner.ReplaceRecipe(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to replace recipe", slog.Int64("menu_item.id", input.MenuItemID), slog.Int64("size.id", input.SizeID))
	}
	s.logInfo(ctx, "recipe replaced",
		slog.Int64("menu_item.id", input.MenuItemID),
		slog.Int64("size.id", input.SizeID),
		slog.Int("lines", len(recipe.Lines)))
	return recipe, nil
}

func (s *Service) GetStoredRecipe(ctx context.Context, menuItemID, sizeID int64) (*domain.Recipe, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetStoredRecipe",
		trace.WithAttributes(attribute.Int64("menu_item.id", menuItemID), attribute.Int64("size.id", sizeID)))
	defer span.End()

	recipe, err := s.inner.GetStoredRecipe(ctx, menuItemID, sizeID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load recipe", slog.Int64("menu_item.id", menuItemID), slog.Int64("size.id", sizeID))
	}
	return recipe, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	reprices metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	reprices, _ := m.Int64Counter("catalog.service.reprices", metric.WithDescription("Number of size price changes"))
	return serviceMetrics{reprices: reprices}
}

func (m serviceMetrics) recordReprice(ctx context.Context) {
	if m.reprices != nil {
		m.reprices.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
