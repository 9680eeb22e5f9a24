package text

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/DaanHessen/spire-parity/internal/engine"
)

// Draw is one value taken from a substream. Counter is the position before the draw.
type Draw struct {
	Counter int
	Value   int
}

// Draws lists draws from one channel as a markdown table.
func Draws(seed engine.RunSeed, ch engine.Channel, bound int, draws []Draw) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s draws\n\n", ch)
	fmt.Fprintf(&b, "Seed `%s` (%d), bound %d\n\n", seed.Text, seed.Value, bound)
	b.WriteString("| counter | value |\n|---:|---:|\n")
	for _, d := range draws {
		fmt.Fprintf(&b, "| %d | %d |\n", d.Counter, d.Value)
	}
	return b.String()
}

// PoolOrder renders a resolved pool as a numbered list in iteration order.
func PoolOrder(id engine.PoolID, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Pool `%s`\n\n", id)
	if len(order) == 0 {
		b.WriteString("_empty pool_\n")
		return b.String()
	}
	for i, name := range order {
		fmt.Fprintf(&b, "%d. %s\n", i, name)
	}
	return b.String()
}

// Streams summarises every channel of a run: counter and the value Int(bound) would
// return next. Peeking does not advance the run.
func Streams(seed engine.RunSeed, streams *engine.RunStreams, bound int) string {
	var b strings.Builder
	pos := streams.Position()
	fmt.Fprintf(&b, "## Run `%s`\n\nFloor %d, act %d\n\n", seed.Text, pos.Floor, pos.Act)
	b.WriteString("| channel | scope | seed | counter | next |\n|---|---|---:|---:|---:|\n")
	for _, ch := range engine.ListChannels() {
		s := streams.MustStream(ch)
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d |\n", ch, ch.Scope(), s.Seed(), s.Counter(), s.Clone().Int(bound))
	}
	return b.String()
}

// Verification renders a verify report.
func Verification(rep engine.Report) string {
	var b strings.Builder
	status := "PASS"
	if !rep.OK() {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "## Verification: %s\n\n", status)
	fmt.Fprintf(&b, "Seed `%s`: %d checked, %d matched, %d mismatched\n", engine.FormatSeed(rep.Seed), rep.Checked, rep.Matches, len(rep.Mismatches))
	if rep.OK() {
		return b.String()
	}
	b.WriteString("\n| channel | counter | pool | observed | predicted |\n|---|---:|---|---|---|\n")
	for _, m := range rep.Mismatches {
		o := m.Observation
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n", o.Channel, o.Counter, o.Pool, o.Observed, m.Predicted.Picked)
	}
	return b.String()
}

// Renderer turns report markdown into terminal output.
type Renderer interface {
	Render(md string) (string, error)
}

// plainRenderer passes markdown through unchanged; used when styling is unavailable.
type plainRenderer struct{}

func NewPlainRenderer() Renderer { return plainRenderer{} }

func (plainRenderer) Render(md string) (string, error) { return md, nil }

// NewGlamourRenderer renders with glamour. Style "auto" picks from the terminal
// background; width <= 0 disables wrapping.
func NewGlamourRenderer(style string, width int) (Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// WithFallback returns a renderer that prefers primary and falls back to backup on error.
func WithFallback(primary, fallback Renderer) Renderer {
	return &fallbackRenderer{p: primary, f: fallback}
}

type fallbackRenderer struct{ p, f Renderer }

func (r *fallbackRenderer) Render(md string) (string, error) {
	if r.p == nil {
		return r.f.Render(md)
	}
	if s, err := r.p.Render(md); err == nil {
		return s, nil
	}
	return r.f.Render(md)
}
