package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	fulfilltypes "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	invdomain "github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/observability/service"

// Service decorates the fulfillment coordinator with tracing, logging, and metrics.
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

// New wraps the fulfillment service.
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
	return s
}

func (s *Service) CreateOrder(ctx context.Context, cmd fulfilltypes.CreateOrderCommand) (*orderdomain.Order, error) {
	ctx, span := s.startSpan(ctx, "FulfillmentService.CreateOrder",
		attribute.Int64("order.owner_user_id", cmd.OwnerUserID),
		attribute.Int("order.line_count", len(cmd.Lines)),
		attribute.Bool("order.idempotent", cmd.IdempotencyKey != ""))
	defer span.End()

	order, err := s.inner.CreateOrder(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.Int64("order.owner_user_id", cmd.OwnerUserID))
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	s.metrics.recordCreated(ctx, order.PaymentMethod)
	s.logInfo(ctx, "order created",
		slog.Int64("order.id", order.ID),
		slog.String("order.ref", order.Reference()),
		slog.String("order.total", order.Total.StringFixed(2)))
	return order, nil
}

func (s *Service) PayOrder(ctx context.Context, input fulfilltypes.PayOrderInput) (*orderdomain.Order, error) {
	ctx, span := s.startSpan(ctx, "FulfillmentService.PayOrder",
		attribute.Int64("order.id", input.OrderID),
		attribute.Bool("loyalty.requested", input.LoyaltyPhone != ""))
	defer span.End()

	order, err := s.inner.PayOrder(ctx, input)
	if err != nil {
		var shortErr *invdomain.InsufficientStockError
		if errors.As(err, &shortErr) {
			for _, shortage := range shortErr.Shortages {
				s.metrics.recordShortage(ctx, shortage.IngredientID)
			}
		}
		return nil, s.handleError(ctx, span, err, "failed to pay order", slog.Int64("order.id", input.OrderID))
	}
	s.metrics.recordTransition(ctx, orderdomain.StatusPaid)
	s.logInfo(ctx, "order paid", slog.Int64("order.id", order.ID), slog.String("order.ref", order.Reference()))
	return order, nil
}

func (s *Service) CompleteOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error) {
	ctx, span := s.startSpan(ctx, "FulfillmentService.CompleteOrder", attribute.Int64("order.id", orderID))
	defer span.End()

	order, err := s.inner.CompleteOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to complete order", slog.Int64("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, orderdomain.StatusCompleted)
	s.logInfo(ctx, "order completed", slog.Int64("order.id", orderID))
	return order, nil
}

func (s *Service) CancelOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error) {
	ctx, span := s.startSpan(ctx, "FulfillmentService.CancelOrder", attribute.Int64("order.id", orderID))
	defer span.End()

	order, err := s.inner.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.Int64("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, orderdomain.StatusCancelled)
	s.logInfo(ctx, "order cancelled", slog.Int64("order.id", orderID), slog.Bool("order.was_paid", order.PaidAt != nil))
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error) {
	ctx, span := s.startSpan(ctx, "FulfillmentService.GetOrder", attribute.Int64("order.id", orderID))
	defer span.End()

	order, err := s.inner.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", orderID))
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, filter orderports.ListFilter) ([]*orderdomain.Order, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses = append(statuses, string(status))
	}
	ctx, span := s.startSpan(ctx, "FulfillmentService.ListOrders", attribute.StringSlice("order.statuses.requested", statuses))
	defer span.End()

	orders, err := s.inner.ListOrders(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(orders)))
	return orders, nil
}

func (s *Service) ListPending(ctx context.Context) ([]*orderdomain.Order, error) {
	ctx, span := s.startSpan(ctx, "FulfillmentService.ListPending")
	defer span.End()

	orders, err := s.inner.ListPending(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pending orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(orders)))
	return orders, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// handleError records the failure. Business rejections log at warn and leave the span status unset.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	level := slog.LevelError
	if isRejection(err) {
		level = slog.LevelWarn
		span.SetAttributes(attribute.String("fulfillment.rejection", err.Error()))
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, level, msg, attrs...)
	}
	return err
}

func isRejection(err error) bool {
	return errors.Is(err, orderdomain.ErrInvalidTransition) ||
		errors.Is(err, invdomain.ErrInsufficientStock) ||
		errors.Is(err, orderports.ErrNotFound) ||
		errors.Is(err, ports.ErrIdempotencyConflict)
}

type serviceMetrics struct {
	ordersCreated  metric.Int64Counter
	transitions    metric.Int64Counter
	stockShortages metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("fulfillment.service.orders_created", metric.WithDescription("Number of orders opened"))
	transitions, _ := m.Int64Counter("fulfillment.service.transitions", metric.WithDescription("Number of order status transitions"))
	stockShortages, _ := m.Int64Counter("fulfillment.service.stock_shortages", metric.WithDescription("Ingredients found short while paying orders"))
	return serviceMetrics{
		ordersCreated:  ordersCreated,
		transitions:    transitions,
		stockShortages: stockShortages,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, paymentMethod string) {
	addCounter(ctx, m.ordersCreated, 1, attribute.String("order.payment_method", paymentMethod))
}

func (m serviceMetrics) recordTransition(ctx context.Context, to orderdomain.Status) {
	addCounter(ctx, m.transitions, 1, attribute.String("order.status", string(to)))
}

func (m serviceMetrics) recordShortage(ctx context.Context, ingredientID int64) {
	addCounter(ctx, m.stockShortages, 1, attribute.Int64("ingredient.id", ingredientID))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
