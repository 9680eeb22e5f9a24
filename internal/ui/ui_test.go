package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DaanHessen/spire-parity/internal/engine"
	"github.com/DaanHessen/spire-parity/internal/text"
	"github.com/DaanHessen/spire-parity/internal/util"
)

func testModel(t *testing.T, table engine.StaticTable) model {
	t.Helper()
	cfg := util.Config{SeedText: "1A2B3C", Theme: "dracula", RulesVersion: "test"}
	return initialModel(context.Background(), nil, table, text.NewPlainRenderer(), cfg)
}

func press(m model, keys ...string) model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func cursorTo(t *testing.T, m model, ch engine.Channel) model {
	t.Helper()
	for i, c := range m.channels {
		if c == ch {
			m.cursor = i
			return m
		}
	}
	t.Fatalf("channel %s not listed", ch)
	return m
}

func TestDrawAdvancesOnlySelectedChannel(t *testing.T) {
	m := cursorTo(t, testModel(t, nil), engine.ChannelCard)
	m = press(m, "enter", "enter")
	h := m.history[engine.ChannelCard]
	if len(h) != 2 || h[0].Value != 95 || h[1].Value != 19 {
		t.Fatalf("unexpected card history %+v", h)
	}
	if got := m.streams.MustStream(engine.ChannelRelic).Counter(); got != 0 {
		t.Fatalf("relic counter moved to %d", got)
	}
}

func TestEnterFloorResetsFloorChannels(t *testing.T) {
	m := cursorTo(t, testModel(t, nil), engine.ChannelShuffle)
	m = press(m, "d", "d", "f")
	if m.streams.Position().Floor != 1 {
		t.Fatalf("floor = %d", m.streams.Position().Floor)
	}
	if got := m.streams.MustStream(engine.ChannelShuffle).Counter(); got != 0 {
		t.Fatalf("shuffle counter after floor = %d", got)
	}
	if len(m.history[engine.ChannelShuffle]) != 0 {
		t.Fatal("floor history not cleared")
	}
}

func TestBoundAndThemeCycle(t *testing.T) {
	m := testModel(t, nil)
	m = press(m, "+")
	if m.bound != 1000 {
		t.Fatalf("bound = %d", m.bound)
	}
	m = press(m, "-", "-")
	if m.bound != 20 {
		t.Fatalf("bound = %d", m.bound)
	}
	m = press(m, "t")
	if m.theme != "gruvbox" {
		t.Fatalf("theme = %s", m.theme)
	}
}

func TestPoolViewPredictsWithoutDrawing(t *testing.T) {
	table := engine.StaticTable{
		engine.CardPool("ironclad", "common"): {
			"Anger", "Armaments", "Body Slam", "Clash", "Cleave", "Clothesline", "Flex", "Havoc",
			"Headbutt", "Heavy Blade", "Iron Wave", "Perfected Strike", "Pommel Strike", "Shrug It Off",
			"Sword Boomerang", "Thunderclap", "True Grit", "Twin Strike", "Warcry", "Wild Strike",
		},
	}
	m := press(testModel(t, table), "p")
	if m.view != viewPool {
		t.Fatalf("view = %s (status %q)", m.view, m.status)
	}
	if !strings.Contains(m.rendered, "0. Anger") || !strings.Contains(m.rendered, "**Flex**") {
		t.Fatalf("unexpected pool view:\n%s", m.rendered)
	}
	if m.streams.MustStream(engine.ChannelCard).Counter() != 0 {
		t.Fatal("pool preview advanced the card stream")
	}
	m = press(m, "esc")
	if m.view != viewStreams {
		t.Fatalf("view after esc = %s", m.view)
	}
}

func TestCheckpointWithoutDatabase(t *testing.T) {
	m := press(testModel(t, nil), "c")
	if m.status != "no database configured" {
		t.Fatalf("status = %q", m.status)
	}
	m = press(m, "p")
	if m.status != "no content table loaded" {
		t.Fatalf("status = %q", m.status)
	}
}

func TestViewRendersChannels(t *testing.T) {
	m := testModel(t, nil)
	out := m.View()
	for _, want := range []string{"SPIRE PARITY", "1A2B3C", "card", "monster_hp"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestNextThemeNameWraps(t *testing.T) {
	if got := nextThemeName("solarized_dark", 1); got != "catppuccin" {
		t.Fatalf("next theme = %s", got)
	}
	if got := nextThemeName("catppuccin", -1); got != "solarized_dark" {
		t.Fatalf("previous theme = %s", got)
	}
}
