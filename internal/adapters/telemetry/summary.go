package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SummaryProcessor implements sdktrace.SpanProcessor. It counts finished
// spans by their kind for the end-of-install summary.
type SummaryProcessor struct {
	mu     sync.Mutex
	counts map[string]int
	failed map[string]int
}

var _ sdktrace.SpanProcessor = (*SummaryProcessor)(nil)

// NewSummaryProcessor returns an empty SummaryProcessor.
func NewSummaryProcessor() *SummaryProcessor {
	return &SummaryProcessor{
		counts: make(map[string]int),
		failed: make(map[string]int),
	}
}

// OnStart is called when a span starts.
func (p *SummaryProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd counts s under its kind attribute. Spans without a kind are ignored.
func (p *SummaryProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	var kind string
	for _, attr := range s.Attributes() {
		if string(attr.Key) == KindKey {
			kind = attr.Value.AsString()
			break
		}
	}
	if kind == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[kind]++
	if s.Status().Code == codes.Error {
		p.failed[kind]++
	}
}

// ForceFlush does nothing.
func (p *SummaryProcessor) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (p *SummaryProcessor) Shutdown(context.Context) error {
	return nil
}

// Count returns how many spans of kind have ended.
func (p *SummaryProcessor) Count(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[kind]
}

// Failed returns how many spans of kind ended with an error.
func (p *SummaryProcessor) Failed(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed[kind]
}
