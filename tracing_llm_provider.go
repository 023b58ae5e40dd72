package kamba

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/kamba/observability"
)

// TracingLLMProvider wraps an LLMProvider and records one span per request.
type TracingLLMProvider struct {
	provider LLMProvider
	backend  string
}

// NewTracingLLMProvider decorates provider. backend names the model service in span
// attributes, e.g. "gemini".
func NewTracingLLMProvider(provider LLMProvider, backend string) *TracingLLMProvider {
	return &TracingLLMProvider{
		provider: provider,
		backend:  backend,
	}
}

// GetResponse implements LLMProvider.
func (t *TracingLLMProvider) GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error) {
	attachments := 0
	for _, m := range messages {
		if m.Attachment != "" {
			attachments++
		}
	}

	ctx, span := observability.StartSpan(ctx, "LLMProvider.GetResponse", trace.WithAttributes(
		attribute.String("llm.backend", t.backend),
		attribute.Int("message_count", len(messages)),
		attribute.Int("attachment_count", attachments),
		attribute.String("response_format", string(config.ResponseFormat)),
	))
	defer span.End()

	startTime := time.Now()

	response, err := t.provider.GetResponse(ctx, messages, config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return LLMResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("total_input_token", response.TotalInputToken),
		attribute.Int("total_output_token", response.TotalOutputToken),
		attribute.Float64("completion_time", time.Since(startTime).Seconds()),
		attribute.Int64("max_token", config.MaxToken),
		attribute.Float64("temperature", config.Temperature),
	)

	return response, nil
}
