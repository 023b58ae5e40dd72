package kamba

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedLLMProvider throttles calls to the wrapped provider.
type RateLimitedLLMProvider struct {
	provider LLMProvider
	limiter  *rate.Limiter
}

// NewRateLimitedLLMProvider allows rps requests per second with a burst of burst.
func NewRateLimitedLLMProvider(provider LLMProvider, rps float64, burst int) *RateLimitedLLMProvider {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedLLMProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// GetResponse waits for a token before delegating.
func (p *RateLimitedLLMProvider) GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return LLMResponse{}, fmt.Errorf("rate limit wait failed: %w", err)
	}
	return p.provider.GetResponse(ctx, messages, config)
}
