// Package tracing 基于 OpenTelemetry 的分布式追踪. 导入客户端与导入服务共用同一套 span 命名，
// 客户端通过 W3C traceparent 头把提交过程的上下文传给服务端.
//
//	if err := tracing.InitTracer(ctx, cfg.Tracing); err != nil {
//		return err
//	}
//	defer tracing.ShutdownTracer(ctx)
//
//	ctx, span := tracing.StartSpan(ctx, "ingest.submit")
//	defer span.End()
package tracing

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/kitvault/pkg/configs"
)

// 支持的导出器.
const (
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterZipkin   = "zipkin"
)

var (
	provider   *sdktrace.TracerProvider
	propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
)

// InitTracer 按配置安装全局 TracerProvider，未启用时只安装传播器.
func InitTracer(ctx context.Context, cfg configs.TracingConfig) error {
	otel.SetTextMapPropagator(propagator)

	if !cfg.Enabled {
		return nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg)...))
	if err != nil {
		return fmt.Errorf("tracing resource: %w", err)
	}

	var batch []sdktrace.BatchSpanProcessorOption
	if cfg.BatchTimeout > 0 {
		batch = append(batch, sdktrace.WithBatchTimeout(cfg.BatchTimeout))
	}

	if cfg.MaxBatchSize > 0 {
		batch = append(batch, sdktrace.WithMaxExportBatchSize(cfg.MaxBatchSize))
	}

	if cfg.MaxQueueSize > 0 {
		batch = append(batch, sdktrace.WithMaxQueueSize(cfg.MaxQueueSize))
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, batch...),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)

	otel.SetTracerProvider(provider)

	return nil
}

func newExporter(ctx context.Context, cfg configs.TracingConfig) (sdktrace.SpanExporter, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch cfg.ExporterType {
	case ExporterOTLPHTTP:
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.Endpoint),
			otlptracehttp.WithHeaders(cfg.Headers),
		)
	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}

		exporter, err = otlptracegrpc.New(ctx, opts...)
	case ExporterZipkin:
		exporter, err = zipkin.New(cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.ExporterType)
	}

	if err != nil {
		return nil, fmt.Errorf("%s exporter: %w", cfg.ExporterType, err)
	}

	return exporter, nil
}

// resourceAttributes 服务名与版本优先，resource_labels 按键排序追加，不覆盖前两者.
func resourceAttributes(cfg configs.TracingConfig) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}

	keys := make([]string, 0, len(cfg.ResourceLabels))
	for k := range cfg.ResourceLabels {
		if k == string(semconv.ServiceNameKey) || k == string(semconv.ServiceVersionKey) {
			continue
		}

		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, cfg.ResourceLabels[k]))
	}

	return attrs
}

// ShutdownTracer 刷出剩余 span 并关闭 provider.
func ShutdownTracer(ctx context.Context) error {
	if provider == nil {
		return nil
	}

	return provider.Shutdown(ctx)
}

// StartSpan 开始一个 span，调用方负责 span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(configs.AppName).Start(ctx, name, opts...)
}

// Inject 将 ctx 中的追踪上下文写入请求头.
func Inject(ctx context.Context, h http.Header) {
	propagator.Inject(ctx, propagation.HeaderCarrier(h))
}

// Extract 从请求头恢复上游的追踪上下文.
func Extract(ctx context.Context, h http.Header) context.Context {
	return propagator.Extract(ctx, propagation.HeaderCarrier(h))
}
