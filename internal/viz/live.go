package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/slidectl/internal/sim"
	"github.com/san-kum/slidectl/internal/slide"
)

const (
	canvasWidth     = 16
	canvasHeight    = 20
	historyCapacity = 300
	frameRate       = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Factory rebuilds the simulation for a reset. The tuning cell is kept
// across resets.
type Factory func() (*sim.Simulator, error)

// Model runs the slide in real time.
type Model struct {
	build     Factory
	sim       *sim.Simulator
	tuning    *slide.Tuning
	dt        float64
	moveStep  float64
	running   bool
	showHelp  bool
	theme     Theme
	styles    styles
	canvas    *Canvas
	paramKeys []string
	selected  int
	last      sim.Sample
	positions []float64
	targets   []float64
	err       error
}

// NewModel builds the first simulation with build. Each tick advances the
// loop by one frame of simulated time in steps of dt.
func NewModel(build Factory, dt, moveStep float64) (Model, error) {
	s, err := build()
	if err != nil {
		return Model{}, err
	}
	theme := themes[0]
	return Model{
		build:     build,
		sim:       s,
		tuning:    s.Controller().Tuning(),
		dt:        dt,
		moveStep:  moveStep,
		running:   true,
		theme:     theme,
		styles:    newStyles(theme),
		canvas:    NewCanvas(canvasWidth, canvasHeight),
		paramKeys: slide.ParamNames(),
		positions: make([]float64, 0, historyCapacity),
		targets:   make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "up", "k":
			m.sim.Controller().MoveUp(m.moveStep)
		case "down", "j":
			m.sim.Controller().MoveDown(m.moveStep)
		case "pgup":
			m.sim.Controller().MoveUp(10 * m.moveStep)
		case "pgdown":
			m.sim.Controller().MoveDown(10 * m.moveStep)
		case "tab":
			m.selected = (m.selected + 1) % len(m.paramKeys)
		case "+", "=":
			m.adjustParam(1.1)
		case "-", "_":
			m.adjustParam(1 / 1.1)
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(1.0 / frameRate)
		}
		return m, tick()
	}
	return m, nil
}

// advance runs the loop for span seconds of simulated time.
func (m *Model) advance(span float64) {
	steps := int(math.Max(1, math.Round(span/m.dt)))
	for i := 0; i < steps; i++ {
		s, err := m.sim.Step(m.dt)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.last = s
	}
	m.positions = appendCapped(m.positions, m.last.Measured)
	m.targets = appendCapped(m.targets, m.last.Target)
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// adjustParam scales the selected parameter. A zero gain is nudged off zero
// so that it can be grown.
func (m *Model) adjustParam(factor float64) {
	key := m.paramKeys[m.selected]
	val := m.tuning.GetParams()[key]
	next := val * factor
	if val == 0 && factor > 1 {
		next = 1e-4
	}
	if err := m.tuning.SetParam(key, next); err != nil {
		m.err = err
		return
	}
	m.err = nil
}

func (m *Model) reset() {
	s, err := m.build()
	if err != nil {
		m.err = err
		return
	}
	m.sim = s
	m.last = sim.Sample{}
	m.positions = m.positions[:0]
	m.targets = m.targets[:0]
	m.err = nil
}

func (m *Model) draw() {
	c := m.canvas
	c.Clear()

	pw, ph := c.Width*2, c.Height*4
	travel := m.sim.Rig().Model().Travel
	toY := func(pos float64) int {
		frac := math.Max(0, math.Min(1, pos/travel))
		return int(math.Round((1 - frac) * float64(ph-1)))
	}

	c.DrawLine(1, 0, 1, ph-1)
	c.DrawLine(pw-2, 0, pw-2, ph-1)

	ty := toY(m.last.Target)
	for x := 3; x < pw-3; x += 2 {
		c.Set(x, ty)
	}

	cy := toY(m.last.Position)
	c.FillRect(4, cy-2, pw-5, cy+2)
}

func (m Model) View() string {
	m.draw()
	st := m.styles
	canvasView := st.panel.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(GradientText("SLIDE", m.theme.Primary, m.theme.Accent)) + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	state := st.idle.Render(m.last.State.String())
	if m.last.State == slide.StateActive {
		state = st.active.Render(m.last.State.String())
	}
	s.WriteString(fmt.Sprintf("%s  %s\n\n", status, state))

	if len(m.positions) > 1 {
		chart := asciigraph.PlotMany(
			[][]float64{m.targets, m.positions},
			asciigraph.Height(8),
			asciigraph.Width(40),
			asciigraph.Precision(0),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
			asciigraph.Caption("target / position"),
		)
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.last.T))
	row("Target", fmt.Sprintf("%.0f", m.last.Target))
	row("Position", fmt.Sprintf("%.0f", m.last.Measured))
	row("Error", fmt.Sprintf("%+.0f", m.last.Error()))
	row("Motors", fmt.Sprintf("L %+.2f  R %+.2f", m.last.Left, m.last.Right))
	row("Output", Bar((m.last.Output+1)/2, 20))

	s.WriteString("\nTUNING\n")
	params := m.tuning.GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-10s %g", k, params[k])
		if i == m.selected {
			s.WriteString(st.param.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Render(line) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + st.err.Render(m.err.Error()) + "\n")
	}

	s.WriteString(st.help.Render("↑↓:Target  Tab:Param  +/-:Tune\nSP:Pause R:Reset T:Theme Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Up/K     - Raise target             ║
║  Down/J   - Lower target             ║
║  PgUp/Dn  - Move target 10 steps     ║
║  Tab      - Select parameter         ║
║  +/-      - Scale parameter (10%)    ║
║  Space    - Pause/Resume             ║
║  R        - Reset rig and target     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
