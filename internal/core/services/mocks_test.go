package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// mockPlugin is a configurable driven.Plugin.
type mockPlugin struct {
	desc    domain.PluginDescriptor
	analyze func(ctx context.Context, p *mockPlugin, chunks []domain.Chunk, text string) (*domain.PluginResult, error)
	calls   atomic.Int32

	mu   sync.Mutex
	cost float64
}

func newMockPlugin(id domain.PluginID, unconditional bool) *mockPlugin {
	return &mockPlugin{desc: domain.PluginDescriptor{
		ID:                 id,
		DisplayName:        string(id) + " checker",
		RunUnconditionally: unconditional,
		Relevance:          domain.RelevanceHint{Description: string(id)},
	}}
}

func (p *mockPlugin) ID() domain.PluginID                 { return p.desc.ID }
func (p *mockPlugin) Descriptor() domain.PluginDescriptor { return p.desc }
func (p *mockPlugin) Relevance() domain.RelevanceHint     { return p.desc.Relevance }

func (p *mockPlugin) Analyze(ctx context.Context, chunks []domain.Chunk, text string) (*domain.PluginResult, error) {
	p.calls.Add(1)
	if p.analyze == nil {
		return &domain.PluginResult{}, nil
	}
	return p.analyze(ctx, p, chunks, text)
}

func (p *mockPlugin) Cost() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cost
}

func (p *mockPlugin) addCost(c float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cost += c
}

// mockFactory builds plugins from constructors, either fresh per Create or cached.
type mockFactory struct {
	isolated bool
	builders map[domain.PluginID]func() (*mockPlugin, error)

	mu      sync.Mutex
	cache   map[domain.PluginID]*mockPlugin
	created []*mockPlugin
}

func newMockFactory(isolated bool) *mockFactory {
	return &mockFactory{
		isolated: isolated,
		builders: make(map[domain.PluginID]func() (*mockPlugin, error)),
		cache:    make(map[domain.PluginID]*mockPlugin),
	}
}

func (f *mockFactory) add(id domain.PluginID, build func() (*mockPlugin, error)) *mockFactory {
	f.builders[id] = build
	return f
}

// addPlugin registers a single shared instance regardless of mode.
func (f *mockFactory) addPlugin(p *mockPlugin) *mockFactory {
	return f.add(p.ID(), func() (*mockPlugin, error) { return p, nil })
}

func (f *mockFactory) Create(id domain.PluginID) (driven.Plugin, error) {
	build, ok := f.builders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPlugin, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isolated {
		if p, ok := f.cache[id]; ok {
			return p, nil
		}
	}
	p, err := build()
	if err != nil {
		return nil, err
	}
	f.cache[id] = p
	f.created = append(f.created, p)
	return p, nil
}

func (f *mockFactory) Descriptor(id domain.PluginID) (domain.PluginDescriptor, error) {
	if _, ok := f.builders[id]; !ok {
		return domain.PluginDescriptor{}, fmt.Errorf("%w: %s", domain.ErrUnknownPlugin, id)
	}
	return domain.PluginDescriptor{ID: id, DisplayName: string(id) + " checker"}, nil
}

func (f *mockFactory) Isolated() bool { return f.isolated }

// mockDecider answers relevance with a function.
type mockDecider struct {
	decide func(chunk domain.Chunk, hint domain.RelevanceHint) (domain.RelevanceVerdict, error)
	calls  atomic.Int32
}

func (d *mockDecider) Decide(_ context.Context, chunk domain.Chunk, hint domain.RelevanceHint) (domain.RelevanceVerdict, error) {
	d.calls.Add(1)
	return d.decide(chunk, hint)
}

// chunkText splits text into chunks at the given offsets.
func chunkText(text string, cuts ...int) []domain.Chunk {
	bounds := append([]int{0}, cuts...)
	bounds = append(bounds, len(text))
	chunks := make([]domain.Chunk, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		chunks = append(chunks, domain.Chunk{
			ID:          fmt.Sprintf("c%d", i),
			Text:        text[bounds[i]:bounds[i+1]],
			StartOffset: bounds[i],
			EndOffset:   bounds[i+1],
			Position:    i,
		})
	}
	return chunks
}

// commentAt builds a valid comment for text[start:end].
func commentAt(id domain.PluginID, text string, start, end int) domain.Comment {
	return domain.Comment{
		Finding: domain.Finding{
			Candidate: domain.Candidate{ID: fmt.Sprintf("%s-%d", id, start), PluginID: id, QuotedText: text[start:end]},
			Severity:  domain.SeverityWarning,
			Message:   "issue",
		},
		Location: domain.LocationMatch{
			StartOffset: start,
			EndOffset:   end,
			MatchedText: text[start:end],
			Strategy:    domain.StrategyExact,
			Confidence:  1,
		},
	}
}

func noSleep(context.Context, time.Duration) error { return nil }
