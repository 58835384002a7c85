package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	overrideSaves     metric.Int64Counter
	overrideReverts   metric.Int64Counter
	overrideConflicts metric.Int64Counter
	listingCacheHits  metric.Int64Counter
	listingCacheMiss  metric.Int64Counter
	propertyImports   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "auctionlens"
	}
	meter := provider.Meter(name)

	overrideSaves, err := meter.Int64Counter("auctionlens_override_saves_total")
	if err != nil {
		return nil, err
	}
	overrideReverts, err := meter.Int64Counter("auctionlens_override_reverts_total")
	if err != nil {
		return nil, err
	}
	overrideConflicts, err := meter.Int64Counter("auctionlens_override_lock_conflicts_total")
	if err != nil {
		return nil, err
	}
	listingCacheHits, err := meter.Int64Counter("auctionlens_listing_cache_hits_total")
	if err != nil {
		return nil, err
	}
	listingCacheMiss, err := meter.Int64Counter("auctionlens_listing_cache_misses_total")
	if err != nil {
		return nil, err
	}
	propertyImports, err := meter.Int64Counter("auctionlens_property_imports_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		overrideSaves:     overrideSaves,
		overrideReverts:   overrideReverts,
		overrideConflicts: overrideConflicts,
		listingCacheHits:  listingCacheHits,
		listingCacheMiss:  listingCacheMiss,
		propertyImports:   propertyImports,
	}, nil
}

// RecordOverrideSave increments override save counts per field.
func (m *Metrics) RecordOverrideSave(ctx context.Context, field string) {
	if m == nil {
		return
	}
	m.overrideSaves.Add(ctx, 1, metric.WithAttributes(
		attribute.String("field", strings.TrimSpace(field)),
	))
}

// RecordOverrideRevert increments override revert counts per field.
func (m *Metrics) RecordOverrideRevert(ctx context.Context, field string) {
	if m == nil {
		return
	}
	m.overrideReverts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("field", strings.TrimSpace(field)),
	))
}

// RecordOverrideLockConflict increments same-triple lock contention counts.
func (m *Metrics) RecordOverrideLockConflict(ctx context.Context, field string) {
	if m == nil {
		return
	}
	m.overrideConflicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("field", strings.TrimSpace(field)),
	))
}

// RecordListingCache increments listing cache hit or miss counts.
func (m *Metrics) RecordListingCache(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.listingCacheHits.Add(ctx, 1)
		return
	}
	m.listingCacheMiss.Add(ctx, 1)
}

// RecordPropertyImport increments feed snapshot upsert counts.
func (m *Metrics) RecordPropertyImport(ctx context.Context, county string) {
	if m == nil {
		return
	}
	m.propertyImports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("county", strings.TrimSpace(county)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
