// Package heuristic provides an offline, rule-based analysis service.
// It needs no API key and costs nothing, which makes it the default provider
// and a deterministic stand-in for tests.
package heuristic

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.AnalysisService = (*Service)(nil)

var (
	arithmeticRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*([-+*/×÷x])\s*(-?\d+(?:\.\d+)?)\s*=\s*(-?\d+(?:\.\d+)?)`)
	wordRe       = regexp.MustCompile(`[\p{L}']+`)
	sentenceRe   = regexp.MustCompile(`[^.!?\n]+[.!?]*`)
	claimRe      = regexp.MustCompile(`(?i)\b(?:1[5-9]|20)\d{2}\b|\d+(?:[.,]\d+)*\s*(?:%|percent|million|billion|thousand)|according to|studies show|research shows`)
	forecastRe   = regexp.MustCompile(`(?i)\b(?:will|is expected to|predicts?|forecasts?|projected to)\b`)
	yearRe       = regexp.MustCompile(`\b20\d{2}\b`)
	hedgeRe      = regexp.MustCompile(`(?i)\b(?:certainly|definitely|guaranteed|without doubt|surely)\b`)
)

// misspellings maps common misspellings to their corrections.
var misspellings = map[string]string{
	"accomodate":  "accommodate",
	"acheive":     "achieve",
	"alot":        "a lot",
	"arguement":   "argument",
	"beleive":     "believe",
	"calender":    "calendar",
	"definately":  "definitely",
	"enviroment":  "environment",
	"existance":   "existence",
	"goverment":   "government",
	"independant": "independent",
	"neccessary":  "necessary",
	"occured":     "occurred",
	"occurence":   "occurrence",
	"publically":  "publicly",
	"recieve":     "receive",
	"seperate":    "separate",
	"teh":         "the",
	"tommorow":    "tomorrow",
	"untill":      "until",
	"wich":        "which",
}

// Service analyses text with fixed rules.
type Service struct{}

// New creates a heuristic analysis service.
func New() *Service {
	return &Service{}
}

// Name returns the provider name.
func (s *Service) Name() string { return string(domain.ProviderHeuristic) }

// Analyze applies the rules for task.PluginID to each chunk.
func (s *Service) Analyze(ctx context.Context, task driven.AnalysisTask) (*driven.AnalysisResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp := &driven.AnalysisResponse{}
	for _, chunk := range task.Chunks {
		switch task.PluginID {
		case domain.PluginMath:
			resp.Candidates = append(resp.Candidates, checkArithmetic(chunk.Text)...)
		case domain.PluginSpelling:
			resp.Candidates = append(resp.Candidates, checkSpelling(chunk.Text)...)
		case domain.PluginFactCheck:
			resp.Candidates = append(resp.Candidates, checkClaims(chunk.Text)...)
		case domain.PluginForecast:
			resp.Candidates = append(resp.Candidates, checkForecasts(chunk.Text)...)
		}
	}
	resp.Summary = fmt.Sprintf("Rule-based review found %d candidate %s.", len(resp.Candidates), noun(len(resp.Candidates)))
	return resp, nil
}

func checkArithmetic(text string) []domain.Candidate {
	var out []domain.Candidate
	for _, m := range arithmeticRe.FindAllStringSubmatch(text, -1) {
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[3], 64)
		stated, _ := strconv.ParseFloat(m[4], 64)
		want, ok := apply(a, m[2], b)
		if !ok {
			continue
		}
		if math.Abs(want-stated) < 1e-9 {
			out = append(out, domain.Candidate{QuotedText: m[0], Payload: map[string]any{"correct": true}})
			continue
		}
		out = append(out, domain.Candidate{
			QuotedText:        m[0],
			Message:           fmt.Sprintf("%s %s %s is not %s.", m[1], m[2], m[3], m[4]),
			SuggestedSeverity: "high",
			Payload:           map[string]any{"expected": want, "stated": stated},
		})
	}
	return out
}

func apply(a float64, op string, b float64) (float64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*", "x", "×":
		return a * b, true
	case "/", "÷":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}
	return 0, false
}

func checkSpelling(text string) []domain.Candidate {
	var out []domain.Candidate
	seen := make(map[string]bool)
	var prev string
	for _, w := range wordRe.FindAllString(text, -1) {
		lower := strings.ToLower(w)
		if fix, ok := misspellings[lower]; ok && !seen[lower] {
			seen[lower] = true
			out = append(out, domain.Candidate{
				QuotedText: w,
				Message:    fmt.Sprintf("%q is misspelled.", w),
				Payload:    map[string]any{"suggestion": matchCase(w, fix)},
			})
		}
		if lower == prev && isWord(lower) && !seen[lower+" "+lower] {
			seen[lower+" "+lower] = true
			out = append(out, domain.Candidate{
				QuotedText: prev + " " + w,
				Message:    "Repeated word.",
				Payload:    map[string]any{"suggestion": w},
			})
		}
		prev = lower
	}
	return out
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func matchCase(original, fix string) string {
	r := []rune(original)
	if len(r) > 0 && unicode.IsUpper(r[0]) {
		f := []rune(fix)
		f[0] = unicode.ToUpper(f[0])
		return string(f)
	}
	return fix
}

func checkClaims(text string) []domain.Candidate {
	var out []domain.Candidate
	for _, s := range sentences(text) {
		if !claimRe.MatchString(s) || forecastRe.MatchString(s) {
			continue
		}
		out = append(out, domain.Candidate{
			QuotedText: s,
			Message:    "Specific claim; confirm it against a source.",
			Payload:    map[string]any{"verdict": "unverified"},
		})
	}
	return out
}

func checkForecasts(text string) []domain.Candidate {
	var out []domain.Candidate
	for _, s := range sentences(text) {
		if !forecastRe.MatchString(s) {
			continue
		}
		payload := map[string]any{}
		if y := yearRe.FindString(s); y != "" {
			payload["resolves_by"] = y
		}
		if hedgeRe.MatchString(s) {
			payload["probability"] = 0.2
		}
		out = append(out, domain.Candidate{
			QuotedText: s,
			Message:    "Prediction about the future.",
			Payload:    payload,
		})
	}
	return out
}

// sentences splits text into trimmed sentences.
func sentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func noun(n int) string {
	if n == 1 {
		return "finding"
	}
	return "findings"
}
