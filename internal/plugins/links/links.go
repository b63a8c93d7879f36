// Package links implements the link-analysis plugin. It extracts URLs from
// the text and probes each one instead of calling an analysis service.
package links

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/plugins/base"
)

var (
	markdownLinkRe = regexp.MustCompile(`\]\((https?://[^)\s]+)\)`)
	bareURLRe      = regexp.MustCompile(`https?://[^\s<>()\[\]"'` + "`" + `]+`)
)

// Descriptor is the link plugin's catalogue entry.
var Descriptor = domain.PluginDescriptor{
	ID:                 domain.PluginLinks,
	DisplayName:        "Link Checker",
	Description:        "Probes every URL and reports broken or unreachable links.",
	RunUnconditionally: true,
	Relevance: domain.RelevanceHint{
		Description: "hyperlinks",
		Patterns:    []string{`https?://`},
	},
	FallbackHint: "Check the document's links in a browser.",
}

// Plugin checks links.
type Plugin struct {
	*base.Core
	prober driven.LinkProber
}

// New creates a link plugin.
func New(deps driven.PluginDeps) (driven.Plugin, error) {
	if deps.Links == nil {
		return nil, fmt.Errorf("%w: link checking needs a link prober", domain.ErrAnalysisUnavailable)
	}
	return &Plugin{
		Core:   base.NewCore(Descriptor, deps.MinPartialLength),
		prober: deps.Links,
	}, nil
}

// Analyze probes each distinct URL once per call.
func (p *Plugin) Analyze(ctx context.Context, chunks []domain.Chunk, documentText string) (*domain.PluginResult, error) {
	result := &domain.PluginResult{Comments: []domain.Comment{}}
	probed := make(map[string]driven.LinkStatus)
	checked := 0

	for _, chunk := range chunks {
		var findings []domain.Finding
		for i, url := range ExtractURLs(chunk.Text) {
			status, ok := probed[url]
			if !ok {
				var err error
				status, err = p.prober.Probe(ctx, url)
				if err != nil {
					if ctx.Err() != nil {
						return nil, ctx.Err()
					}
					status = driven.LinkStatus{URL: url, Detail: err.Error()}
				}
				probed[url] = status
				checked++
			}
			if f, bad := assess(status); bad {
				f.ID = fmt.Sprintf("%s-%d-%d", p.ID(), chunk.Position, i)
				f.PluginID = p.ID()
				f.SourceChunkID = chunk.ID
				findings = append(findings, f)
			}
		}
		comments, dropped := p.Anchor(chunk, documentText, findings)
		result.Comments = append(result.Comments, comments...)
		result.Dropped += dropped
	}

	result.Summary = fmt.Sprintf("%d of %d links broken", brokenCount(probed), checked)
	return result, nil
}

func assess(s driven.LinkStatus) (domain.Finding, bool) {
	if !s.Broken() {
		return domain.Finding{}, false
	}
	f := domain.Finding{Candidate: domain.Candidate{
		QuotedText: s.URL,
		Payload:    map[string]any{"url": s.URL, "status": s.StatusCode},
	}}
	if s.Reachable {
		f.Severity = domain.SeverityError
		f.Message = fmt.Sprintf("Link returns HTTP %d.", s.StatusCode)
	} else {
		f.Severity = domain.SeverityWarning
		f.Message = "Link could not be reached."
		if s.Detail != "" {
			f.Message = fmt.Sprintf("Link could not be reached: %s.", s.Detail)
		}
	}
	f.Candidate.Message = f.Message
	return f, true
}

func brokenCount(probed map[string]driven.LinkStatus) int {
	n := 0
	for _, s := range probed {
		if s.Broken() {
			n++
		}
	}
	return n
}

// ExtractURLs returns the distinct http(s) URLs in text, in order of first
// appearance. Markdown link targets and bare URLs are both recognised.
func ExtractURLs(text string) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimRight(u, ".,;:!?")
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	type hit struct {
		at  int
		url string
	}
	var hits []hit
	for _, m := range markdownLinkRe.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{m[2], text[m[2]:m[3]]})
	}
	for _, m := range bareURLRe.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{m[0], text[m[0]:m[1]]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })
	for _, h := range hits {
		add(h.url)
	}
	return urls
}
