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

	invtypes "github.com/Apurer/cafe-pos-server/internal/domains/inventory/application/types"
	invdomain "github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	invports "github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"
)

const tracerName = "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/observability/service"

// Service decorates the inventory service with tracing, logging, and metrics.
type Service struct {
	inner   invports.Service
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

// New wraps the core inventory service.
func New(inner invports.Service, opts ...Option) invports.Service {
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

func (s *Service) CreateIngredient(ctx context.Context, input invtypes.CreateIngredientInput) (*invdomain.Ingredient, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.CreateIngredient",
		trace.WithAttributes(attribute.String("ingredient.name", input.Name)))
	defer span.End()

	result, err := s.inner.CreateIngredient(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create ingredient", slog.String("ingredient.name", input.Name))
	}
	s.logInfo(ctx, "ingredient created", slog.Int64("ingredient.id", result.ID), slog.String("stock", result.Stock.String()))
	return result, nil
}

func (s *Service) GetIngredient(ctx context.Context, id int64) (*invdomain.Ingredient, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetIngredient", trace.WithAttributes(attribute.Int64("ingredient.id", id)))
	defer span.End()

	result, err := s.inner.GetIngredient(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load ingredient", slog.Int64("ingredient.id", id))
	}
	return result, nil
}

func (s *Service) ListIngredients(ctx context.Context) ([]*invdomain.Ingredient, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListIngredients")
	defer span.End()

	result, err := s.inner.ListIngredients(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list ingredients")
	}
	span.SetAttributes(attribute.Int("ingredient.count", len(result)))
	return result, nil
}

func (s *Service) ListLowStock(ctx context.Context) ([]*invdomain.Ingredient, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListLowStock")
	defer span.End()

	result, err := s.inner.ListLowStock(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list low-stock ingredients")
	}
	span.SetAttributes(attribute.Int("ingredient.low_stock.count", len(result)))
	if len(result) > 0 {
		s.logInfo(ctx, "ingredients at or below threshold", slog.Int("count", len(result)))
	}
	return result, nil
}

func (s *Service) Restock(ctx context.Context, input invtypes.RestockInput) (*invdomain.Ingredient, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Restock",
		trace.WithAttributes(attribute.Int64("ingredient.id", input.IngredientID), attribute.String("amount", input.Amount.String())))
	defer span.End()

	s.logInfo(ctx, "restocking ingredient", slog.Int64("ingredient.id", input.IngredientID), slog.String("amount", input.Amount.String()))
	result, err := s.inner.Restock(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to restock ingredient", slog.Int64("ingredient.id", input.IngredientID))
	}
	s.metrics.recordRestock(ctx)
	s.logInfo(ctx, "ingredient restocked", slog.Int64("ingredient.id", result.ID), slog.String("stock", result.Stock.String()))
	return result, nil
}

func (s *Service) ListMovements(ctx context.Context, ingredientID int64, limit int) ([]invdomain.Movement, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListMovements", trace.WithAttributes(attribute.Int64("ingredient.id", ingredientID)))
	defer span.End()

	result, err := s.inner.ListMovements(ctx, ingredientID, limit)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list stock movements", slog.Int64("ingredient.id", ingredientID))
	}
	return result, nil
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
	restocks metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	restocks, _ := m.Int64Counter("inventory.service.restocks", metric.WithDescription("Number of restock operations"))
	return serviceMetrics{restocks: restocks}
}

func (m serviceMetrics) recordRestock(ctx context.Context) {
	if m.restocks != nil {
		m.restocks.Add(ctx, 1)
	}
}

var _ invports.Service = (*Service)(nil)
