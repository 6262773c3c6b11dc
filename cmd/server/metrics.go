package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/icco/skirmish"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics counts what happens to the match. Move counters go through
// OpenTelemetry and are exported on the same Prometheus registry as the
// connection gauge.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	clients prometheus.Gauge

	applied  metric.Int64Counter
	rejected metric.Int64Counter
	captures metric.Int64Counter
	finished metric.Int64Counter
}

// NewMetrics builds a registry with its own exporter so tests can create as
// many as they like.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	clients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skirmish_connected_clients",
		Help: "Number of open websocket connections.",
	})
	if err := reg.Register(clients); err != nil {
		return nil, err
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(skirmish.Service)

	m := &Metrics{registry: reg, provider: provider, clients: clients}
	if m.applied, err = meter.Int64Counter("skirmish_moves_applied", metric.WithDescription("Moves applied to the board.")); err != nil {
		return nil, err
	}
	if m.rejected, err = meter.Int64Counter("skirmish_moves_rejected", metric.WithDescription("Moves rejected, by reason.")); err != nil {
		return nil, err
	}
	if m.captures, err = meter.Int64Counter("skirmish_captures", metric.WithDescription("Pieces captured.")); err != nil {
		return nil, err
	}
	if m.finished, err = meter.Int64Counter("skirmish_games_finished", metric.WithDescription("Matches played to the end, by winner.")); err != nil {
		return nil, err
	}

	return m, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

func (m *Metrics) clientConnected() {
	m.clients.Inc()
}

func (m *Metrics) clientDisconnected() {
	m.clients.Dec()
}

func (m *Metrics) moveApplied(ctx context.Context, res *skirmish.Result) {
	player := attribute.String("player", res.Player.String())
	m.applied.Add(ctx, 1, metric.WithAttributes(player))
	if res.Combat.Captured {
		m.captures.Add(ctx, 1, metric.WithAttributes(player))
	}
	if res.GameOver {
		m.finished.Add(ctx, 1, metric.WithAttributes(attribute.String("winner", res.Winner.String())))
	}
}

func (m *Metrics) moveRejected(ctx context.Context, err error) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectionReason(err))))
}

// rejectionReason maps a rejection onto a small fixed label set.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, skirmish.ErrGameOver):
		return "game_over"
	case errors.Is(err, skirmish.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, skirmish.ErrInvalidCommand):
		return "invalid_command"
	case errors.Is(err, skirmish.ErrPieceMismatch):
		return "piece_mismatch"
	case errors.Is(err, skirmish.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, skirmish.ErrFriendlyFire):
		return "friendly_fire"
	case errors.Is(err, skirmish.ErrInvalidMove):
		return "invalid_move"
	default:
		return "other"
	}
}
