package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DaanHessen/spire-parity/internal/engine"
	"github.com/DaanHessen/spire-parity/internal/store"
	"github.com/DaanHessen/spire-parity/internal/text"
	"github.com/DaanHessen/spire-parity/internal/util"
)

const (
	viewStreams = "streams"
	viewPool    = "pool"
	viewReport  = "report"
	viewHelp    = "help"
)

const (
	defaultBound = 100
	maxHistory   = 12
)

var bounds = []int{2, 6, 10, 20, 100, 1000}

type model struct {
	ctx          context.Context
	seed         engine.RunSeed
	streams      *engine.RunStreams
	rulesVersion string
	version      string

	channels []engine.Channel
	cursor   int
	bound    int
	history  map[engine.Channel][]text.Draw

	resolver  *engine.Resolver
	pools     []engine.PoolID
	poolIndex int

	renderer text.Renderer
	rendered string

	// persistence, optional
	db    *store.DB
	runID uuid.UUID

	theme  string
	styles styles
	view   string
	status string
	width  int
	height int

	scrollOffset int
}

type styles struct {
	title    lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	accent   lipgloss.Style
	warning  lipgloss.Style
	gauge    lipgloss.Style
	panel    lipgloss.Style
}

func stylesFor(p palette) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		selected: lipgloss.NewStyle().Bold(true).Foreground(p.Background).Background(p.Selection),
		muted:    lipgloss.NewStyle().Foreground(p.Muted),
		accent:   lipgloss.NewStyle().Foreground(p.Good),
		warning:  lipgloss.NewStyle().Foreground(p.Warn),
		gauge:    lipgloss.NewStyle().Foreground(p.Bar),
		panel:    lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(p.Border).Padding(0, 1),
	}
}

// initialModel seeds a fresh run. table may be nil when no content table is configured.
func initialModel(ctx context.Context, db *store.DB, table engine.StaticTable, renderer text.Renderer, cfg util.Config) model {
	seed, err := engine.NewRunSeed(cfg.SeedText)
	status := ""
	if err != nil {
		seed = engine.SeedFromValue(0)
		status = "invalid seed, using 0"
	}
	m := model{
		ctx:          ctx,
		seed:         seed,
		streams:      seed.Streams(),
		rulesVersion: cfg.RulesVersion,
		channels:     engine.ListChannels(),
		bound:        defaultBound,
		history:      make(map[engine.Channel][]text.Draw),
		renderer:     renderer,
		db:           db,
		theme:        cfg.Theme,
		view:         viewStreams,
		status:       status,
	}
	m.styles = stylesFor(paletteFor(m.theme))
	m.theme = paletteFor(m.theme).Name
	if len(table) > 0 {
		m.resolver = engine.NewResolver(table)
		m.pools = table.Pools()
		sort.Slice(m.pools, func(i, j int) bool { return m.pools[i] < m.pools[j] })
	}
	return m
}

func (m *model) selected() engine.Channel { return m.channels[m.cursor] }

// draw takes one Int(bound) from the selected channel.
func (m *model) draw() {
	ch := m.selected()
	s := m.streams.MustStream(ch)
	d := text.Draw{Counter: s.Counter(), Value: s.Int(m.bound)}
	h := append(m.history[ch], d)
	if len(h) > maxHistory {
		h = h[len(h)-maxHistory:]
	}
	m.history[ch] = h
	m.status = fmt.Sprintf("%s[%d] = %d", ch, d.Counter, d.Value)
}

func (m *model) enterFloor() {
	pos := m.streams.Position()
	m.streams.EnterFloor(pos.Floor + 1)
	m.clearScoped(engine.ScopeFloor)
	m.status = fmt.Sprintf("entered floor %d", pos.Floor+1)
}

func (m *model) enterAct() {
	pos := m.streams.Position()
	m.streams.EnterAct(pos.Act + 1)
	m.clearScoped(engine.ScopeAct)
	m.status = fmt.Sprintf("entered act %d", pos.Act+1)
}

func (m *model) clearScoped(scope engine.Scope) {
	for ch := range m.history {
		if ch.Scope() == scope {
			delete(m.history, ch)
		}
	}
}

func (m *model) cycleBound(step int) {
	idx := 0
	for i, b := range bounds {
		if b == m.bound {
			idx = i
			break
		}
	}
	idx = (idx + step + len(bounds)) % len(bounds)
	m.bound = bounds[idx]
}

func (m *model) cycleTheme() {
	m.theme = nextThemeName(m.theme, 1)
	m.styles = stylesFor(paletteFor(m.theme))
	m.status = "theme: " + m.theme
}

// showPool resolves the current pool and predicts the next pick from the card stream.
func (m *model) showPool(step int) {
	if m.resolver == nil || len(m.pools) == 0 {
		m.status = "no content table loaded"
		return
	}
	m.poolIndex = (m.poolIndex + step + len(m.pools)) % len(m.pools)
	id := m.pools[m.poolIndex]
	order, err := m.resolver.Order(id)
	if err != nil {
		m.status = "pool order failed: " + err.Error()
		return
	}
	md := text.PoolOrder(id, order)
	if p, err := engine.PredictPick(m.resolver, m.streams.MustStream(engine.ChannelCard).Clone(), id); err == nil {
		md += fmt.Sprintf("\nNext pick from `%s` at counter %d: **%s**\n", p.Channel, p.Counter, p.Picked)
	}
	m.rendered = m.render(md)
	m.scrollOffset = 0
	m.view = viewPool
}

func (m *model) showReport() {
	m.rendered = m.render(text.Streams(m.seed, m.streams, m.bound))
	m.scrollOffset = 0
	m.view = viewReport
}

func (m *model) render(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// checkpoint persists the run on first use, then records the current counters.
func (m *model) checkpoint() {
	if m.db == nil {
		m.status = "no database configured"
		return
	}
	if m.runID == uuid.Nil {
		run, err := store.NewRunRepo(m.db).Create(m.ctx, m.seed, m.rulesVersion)
		if err != nil {
			m.status = "create run failed: " + err.Error()
			return
		}
		m.runID = run.ID
	}
	repo := store.NewCheckpointRepo(m.db)
	var cp store.Checkpoint
	err := m.db.WithTx(m.ctx, func(tx *gorm.DB) error {
		var err error
		cp, err = repo.Insert(m.ctx, tx, m.runID, m.streams)
		return err
	})
	if err != nil {
		m.status = "checkpoint failed: " + err.Error()
		return
	}
	m.status = "checkpoint " + cp.ID.String()[:8]
}

// tea.Model implementation ---------------------------------------------------
func (m model) Init() tea.Cmd { return nil }

func (m model) View() string {
	switch m.view {
	case viewPool, viewReport:
		return m.renderScrolled(m.rendered)
	case viewHelp:
		return m.renderHelp()
	default:
		return m.renderLayout()
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		k := msg.String()
		switch k {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			m.view = viewStreams
			return m, nil
		case "?":
			m.view = viewHelp
			return m, nil
		case "t":
			m.cycleTheme()
			return m, nil
		}
		if m.view == viewPool || m.view == viewReport {
			switch k {
			case "down", "j":
				m.scrollOffset += 3
			case "up", "k":
				m.scrollOffset -= 3
			case "p", "tab":
				if m.view == viewPool {
					m.showPool(1)
				}
			case "shift+tab":
				if m.view == viewPool {
					m.showPool(-1)
				}
			}
			if m.scrollOffset < 0 {
				m.scrollOffset = 0
			}
			return m, nil
		}
		switch k {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.channels)-1 {
				m.cursor++
			}
		case "enter", " ", "d":
			m.draw()
		case "f":
			m.enterFloor()
		case "a":
			m.enterAct()
		case "+", "=":
			m.cycleBound(1)
		case "-":
			m.cycleBound(-1)
		case "p":
			m.showPool(0)
		case "r":
			m.showReport()
		case "c":
			m.checkpoint()
		}
	}
	return m, nil
}

// Layout rendering -----------------------------------------------------------
func (m *model) renderLayout() string {
	w := m.width
	if w <= 0 {
		w = 100
	}
	sidebarWidth := 34
	if w < 90 {
		sidebarWidth = 26
	}
	mainWidth := w - sidebarWidth - 4

	main := lipgloss.NewStyle().Width(mainWidth).Render(m.buildChannelList())
	side := m.styles.panel.Width(sidebarWidth).Render(m.buildSidebar())
	body := lipgloss.JoinHorizontal(lipgloss.Top, main, side)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTopBar(), body, m.renderBottomBar())
}

func (m *model) renderTopBar() string {
	pos := m.streams.Position()
	left := strings.Join([]string{"SPIRE PARITY", "seed " + m.seed.Text, fmt.Sprintf("bound %d", m.bound)}, " • ")
	right := fmt.Sprintf("Floor %d  Act %d", pos.Floor, pos.Act)
	w := m.width
	if w <= 0 {
		w = 100
	}
	gap := w - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return m.styles.title.Render(left + strings.Repeat(" ", gap) + right)
}

func (m *model) renderBottomBar() string {
	keys := "[↑/↓] channel  [Enter] draw  [F] floor  [A] act  [+/-] bound  [P] pools  [R] report  [C] checkpoint  [T] theme  [?] help  [Q] quit"
	line := m.status
	w := m.width
	if w <= 0 {
		w = 100
	}
	if len(line) > w && w > 10 {
		line = line[:w-3] + "..."
	}
	return m.styles.muted.Render(keys) + "\n" + m.styles.warning.Render(line)
}

func (m *model) buildChannelList() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("CHANNELS") + "\n")
	for i, ch := range m.channels {
		s := m.streams.MustStream(ch)
		next := s.Clone().Int(m.bound)
		row := fmt.Sprintf("%-12s %-5s #%-5d next %4d", ch, ch.Scope(), s.Counter(), next)
		if i == m.cursor {
			row = m.styles.selected.Render(row)
		}
		b.WriteString(row + " " + m.styles.gauge.Render(bar(next, m.bound)) + "\n")
	}
	return b.String()
}

func (m *model) buildSidebar() string {
	ch := m.selected()
	s := m.streams.MustStream(ch)
	var b strings.Builder
	b.WriteString(m.styles.title.Render(strings.ToUpper(string(ch))) + "\n")
	b.WriteString(fmt.Sprintf("scope %s\n", ch.Scope()))
	b.WriteString(fmt.Sprintf("seed  %d\n", s.Seed()))
	b.WriteString(fmt.Sprintf("count %d\n", s.Counter()))
	if key := ch.SaveKey(); key != "" {
		b.WriteString(m.styles.muted.Render(key) + "\n")
	}
	b.WriteString("\nRECENT\n")
	h := m.history[ch]
	if len(h) == 0 {
		b.WriteString("(none)\n")
	}
	for i := len(h) - 1; i >= 0; i-- {
		b.WriteString(m.styles.accent.Render(fmt.Sprintf("#%-5d %d", h[i].Counter, h[i].Value)) + "\n")
	}
	return b.String()
}

func (m *model) renderScrolled(content string) string {
	lines := strings.Split(content, "\n")
	h := m.height
	if h <= 0 {
		h = 30
	}
	avail := h - 2
	start := m.scrollOffset
	if maxStart := len(lines) - avail; start > maxStart {
		start = maxStart
	}
	if start < 0 {
		start = 0
	}
	view := lines[start:]
	if avail > 0 && len(view) > avail {
		view = view[:avail]
	}
	return m.styles.muted.Render("(↑/↓ scroll, Esc back)") + "\n" + strings.Join(view, "\n")
}

func (m *model) renderHelp() string {
	return fmt.Sprintf("ABOUT\n\nSeed & Rules: %s • %s • %s\n\nEvery channel is an independent substream of the run seed."+
		" Drawing from one never moves another. Run channels keep their counters across floors and are what a save stores;"+
		" floor channels reseed on every floor and the map channel on every act.\n\n"+
		"Controls: ↑/↓ select | Enter draw | F next floor | A next act | +/- bound | P pool orders (Tab next) | R report | C checkpoint | T theme | Q quit.\n\nEsc returns from subviews.",
		m.seed.Text, m.rulesVersion, m.version)
}

func bar(v, bound int) string {
	width := 10
	if bound <= 0 {
		return strings.Repeat("·", width)
	}
	fill := int(float64(v)/float64(bound)*float64(width) + 0.5)
	if fill > width {
		fill = width
	}
	return strings.Repeat("█", fill) + strings.Repeat("·", width-fill)
}
