package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the domain metrics for the auction core. It satisfies
// the MetricsCollector interfaces of the bidding, lifecycle and
// settlement services.
type Registry struct {
	meter metric.Meter

	// Bidding metrics
	BidAcceptedCounter     metric.Int64Counter
	BidRejectedCounter     metric.Int64Counter
	AuctionExtendedCounter metric.Int64Counter

	// Lifecycle metrics
	AuctionStartedCounter    metric.Int64Counter
	AuctionEndedCounter      metric.Int64Counter
	SettlementFailureCounter metric.Int64Counter

	// Settlement metrics
	OrderCreatedCounter   metric.Int64Counter
	BuyNowConflictCounter metric.Int64Counter

	// API metrics
	APIRequestDuration metric.Float64Histogram
	APIRequestCounter  metric.Int64Counter
}

// NewRegistry creates a metrics registry over the named meter
func NewRegistry(meterName string) (*Registry, error) {
	r := &Registry{meter: otel.Meter(meterName)}

	if err := r.initBiddingMetrics(); err != nil {
		return nil, err
	}
	if err := r.initLifecycleMetrics(); err != nil {
		return nil, err
	}
	if err := r.initSettlementMetrics(); err != nil {
		return nil, err
	}
	if err := r.initAPIMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) initBiddingMetrics() error {
	var err error

	r.BidAcceptedCounter, err = r.meter.Int64Counter(
		"axb.bid.accepted_total",
		metric.WithDescription("Total number of accepted bids"),
	)
	if err != nil {
		return err
	}

	r.BidRejectedCounter, err = r.meter.Int64Counter(
		"axb.bid.rejected_total",
		metric.WithDescription("Total number of rejected bids"),
	)
	if err != nil {
		return err
	}

	r.AuctionExtendedCounter, err = r.meter.Int64Counter(
		"axb.auction.extended_total",
		metric.WithDescription("Total number of anti-sniping end time extensions"),
	)

	return err
}

func (r *Registry) initLifecycleMetrics() error {
	var err error

	r.AuctionStartedCounter, err = r.meter.Int64Counter(
		"axb.auction.started_total",
		metric.WithDescription("Total number of auctions activated"),
	)
	if err != nil {
		return err
	}

	r.AuctionEndedCounter, err = r.meter.Int64Counter(
		"axb.auction.ended_total",
		metric.WithDescription("Total number of auctions closed"),
	)
	if err != nil {
		return err
	}

	r.SettlementFailureCounter, err = r.meter.Int64Counter(
		"axb.auction.settlement_failure_total",
		metric.WithDescription("Total number of ended auctions left without an order"),
	)

	return err
}

func (r *Registry) initSettlementMetrics() error {
	var err error

	r.OrderCreatedCounter, err = r.meter.Int64Counter(
		"axb.order.created_total",
		metric.WithDescription("Total number of orders created"),
	)
	if err != nil {
		return err
	}

	r.BuyNowConflictCounter, err = r.meter.Int64Counter(
		"axb.order.buy_now_conflict_total",
		metric.WithDescription("Total number of buy-now attempts lost to stock depletion"),
	)

	return err
}

func (r *Registry) initAPIMetrics() error {
	var err error

	r.APIRequestDuration, err = r.meter.Float64Histogram(
		"axb.api.request_duration",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	r.APIRequestCounter, err = r.meter.Int64Counter(
		"axb.api.request_total",
		metric.WithDescription("Total number of API requests"),
	)

	return err
}

func (r *Registry) RecordBidAccepted(ctx context.Context) {
	r.BidAcceptedCounter.Add(ctx, 1)
}

func (r *Registry) RecordBidRejected(ctx context.Context, reason string) {
	r.BidRejectedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func (r *Registry) RecordAuctionExtended(ctx context.Context) {
	r.AuctionExtendedCounter.Add(ctx, 1)
}

func (r *Registry) RecordAuctionStarted(ctx context.Context) {
	r.AuctionStartedCounter.Add(ctx, 1)
}

func (r *Registry) RecordAuctionEnded(ctx context.Context, won bool) {
	r.AuctionEndedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("won", won),
	))
}

func (r *Registry) RecordSettlementFailure(ctx context.Context) {
	r.SettlementFailureCounter.Add(ctx, 1)
}

func (r *Registry) RecordOrderCreated(ctx context.Context) {
	r.OrderCreatedCounter.Add(ctx, 1)
}

func (r *Registry) RecordBuyNowConflict(ctx context.Context) {
	r.BuyNowConflictCounter.Add(ctx, 1)
}

// RecordAPIRequest records request duration and count for one handled
// HTTP request.
func (r *Registry) RecordAPIRequest(ctx context.Context, durationMS float64, method, path string, statusCode int) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	}

	r.APIRequestDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.APIRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
