// Package telemetry wires OpenTelemetry trace and metric providers with OTLP
// exporters, selected by the telemetry section of the application configuration.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"

	config "github.com/tenderworks/pipeline/pkg/pipeline/core/config"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// newResource describes this process in exported telemetry.
func newResource(cfg *config.Config) *sdkresource.Resource {
	return sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.Pipeline.Telemetry.ServiceName),
	)
}

// NewTracerProvider builds a tracer provider. When telemetry is disabled the
// provider carries no exporter and spans are dropped at the SDK boundary.
func NewTracerProvider(lc fx.Lifecycle, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	tel := cfg.Pipeline.Telemetry
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(newResource(cfg)),
	}

	if tel.Enabled {
		exporter, err := newTraceExporter(context.Background(), tel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		logger.Infof("OTLP trace export enabled (%s, endpoint: %s).", tel.Protocol, tel.Endpoint)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return tp, nil
}

// NewMeterProvider builds a meter provider mirroring NewTracerProvider.
func NewMeterProvider(lc fx.Lifecycle, cfg *config.Config) (*sdkmetric.MeterProvider, error) {
	tel := cfg.Pipeline.Telemetry
	opts := []sdkmetric.Option{
		sdkmetric.WithResource(newResource(cfg)),
	}

	if tel.Enabled {
		exporter, err := newMetricExporter(context.Background(), tel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
		logger.Infof("OTLP metric export enabled (%s, endpoint: %s).", tel.Protocol, tel.Endpoint)
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return mp.Shutdown(ctx)
		},
	})
	return mp, nil
}

func newTraceExporter(ctx context.Context, tel config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch tel.Protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(tel.Endpoint)}
		if tel.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http", "":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(tel.Endpoint)}
		if tel.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported telemetry protocol: %s", tel.Protocol)
	}
}

func newMetricExporter(ctx context.Context, tel config.TelemetryConfig) (sdkmetric.Exporter, error) {
	switch tel.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(tel.Endpoint)}
		if tel.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case "http", "":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(tel.Endpoint)}
		if tel.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported telemetry protocol: %s", tel.Protocol)
	}
}
