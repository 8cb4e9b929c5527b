// Package tracing wires OpenTelemetry distributed tracing. Tracing is
// optional: when no endpoint is configured the engine runs without it.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/domain"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/repository"
)

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes distributed tracing against an OTLP gRPC endpoint
// and installs the global provider and propagator.
func InitTracing(serviceName, environment, endpoint string) (*TracerProvider, error) {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &TracerProvider{
		provider: tp,
		tracer:   tp.Tracer(serviceName),
	}, nil
}

// Shutdown flushes and stops the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.provider.Shutdown(ctx)
}

// Tracer returns the service tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// TraceNodeRepository wraps a node repository so every store operation emits
// a span.
func TraceNodeRepository(repo repository.NodeRepository, tracer trace.Tracer) repository.NodeRepository {
	return &tracedNodeRepository{inner: repo, tracer: tracer}
}

type tracedNodeRepository struct {
	inner  repository.NodeRepository
	tracer trace.Tracer
}

func (r *tracedNodeRepository) CreateNode(ctx context.Context, node *domain.KnowledgeNode) error {
	ctx, span := r.tracer.Start(ctx, "repository.CreateNode",
		trace.WithAttributes(
			attribute.String("node.id", node.ID),
			attribute.String("node.domain", node.Domain),
		),
	)
	defer span.End()

	err := r.inner.CreateNode(ctx, node)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (r *tracedNodeRepository) FindNodeByID(ctx context.Context, id string) (*domain.KnowledgeNode, error) {
	ctx, span := r.tracer.Start(ctx, "repository.FindNodeByID",
		trace.WithAttributes(attribute.String("node.id", id)),
	)
	defer span.End()

	node, err := r.inner.FindNodeByID(ctx, id)
	if err != nil {
		span.RecordError(err)
	}
	return node, err
}

func (r *tracedNodeRepository) FindNodesByDomain(ctx context.Context, domainName string, limit int) ([]*domain.KnowledgeNode, error) {
	ctx, span := r.tracer.Start(ctx, "repository.FindNodesByDomain",
		trace.WithAttributes(
			attribute.String("node.domain", domainName),
			attribute.Int("query.limit", limit),
		),
	)
	defer span.End()

	nodes, err := r.inner.FindNodesByDomain(ctx, domainName, limit)
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Int("query.results", len(nodes)))
	return nodes, err
}

func (r *tracedNodeRepository) DeleteNode(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "repository.DeleteNode",
		trace.WithAttributes(attribute.String("node.id", id)),
	)
	defer span.End()

	err := r.inner.DeleteNode(ctx, id)
	if err != nil {
		span.RecordError(err)
	}
	return err
}
