package viz

import (
	"fmt"
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fraczoom/internal/app"
	"github.com/san-kum/fraczoom/internal/config"
	"github.com/san-kum/fraczoom/internal/frame"
	"github.com/san-kum/fraczoom/internal/nav"
	"github.com/san-kum/fraczoom/internal/viewport"
)

const (
	stateBrowse = iota
	stateEdit
	statePresets
)

const (
	topRows    = 1
	bottomRows = 5
)

var fieldNames = [3]string{"center", "span x", "span y"}

// FrameMsg carries a frame accepted by the controller into the program.
type FrameMsg struct{ Frame *frame.Frame }

type Options struct {
	Theme string
	// Renderer binds styles to an output other than stdout.
	Renderer *lipgloss.Renderer
}

// Explorer is the terminal front end of one session.
type Explorer struct {
	session *app.Session
	nav     nav.Navigator
	canvas  *Canvas
	theme   Theme
	st      styles

	state     int
	fields    [3]string
	field     int
	presets   []string
	presetIdx int
	message   string
	failed    bool
	cross     bool
	showHelp  bool
	width     int
	height    int
	frame     *frame.Frame
	quitting  bool
}

func NewExplorer(s *app.Session, opts Options) Explorer {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	theme := GetTheme(opts.Theme)
	c := s.Nav.Canvas()
	cw, ch := CellsFor(c.Width, c.Height)
	return Explorer{
		session: s,
		nav:     s.Nav,
		canvas:  NewCanvas(cw, ch),
		theme:   theme,
		st:      newStyles(r, theme),
		presets: config.ListPresets(),
		width:   cw,
		height:  ch + topRows + bottomRows,
		frame:   s.Nav.Frame(),
	}
}

func (m Explorer) Init() tea.Cmd {
	return func() tea.Msg {
		m.nav.Repaint()
		return nil
	}
}

func (m Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil
	case FrameMsg:
		m.frame = msg.Frame
	}
	return m, nil
}

func (m Explorer) handleKey(msg tea.KeyMsg) (Explorer, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	switch m.state {
	case stateEdit:
		return m.editKey(msg), nil
	case statePresets:
		return m.presetKey(msg), nil
	}
	return m.browseKey(msg)
}

func (m Explorer) browseKey(msg tea.KeyMsg) (Explorer, tea.Cmd) {
	m.message, m.failed = "", false
	c := m.nav.Canvas()
	center := image.Pt(c.Width/2, c.Height/2)
	stepX, stepY := max(c.Width/8, 1), max(c.Height/8, 1)

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "e":
		f := m.nav.Fields()
		m.fields = [3]string{f.CenterHex, f.SpanX, f.SpanY}
		m.field = 0
		m.state = stateEdit
	case "p":
		m.state = statePresets
	case "r":
		m = m.report(m.nav.Revert())
	case "enter":
		m.nav.Repaint()
	case "+", "=":
		m = m.report(m.nav.Scroll(1, center))
	case "-", "_":
		m = m.report(m.nav.Scroll(-1, center))
	case "left", "h":
		m = m.report(m.nav.Pan(image.Pt(stepX, 0)))
	case "right", "l":
		m = m.report(m.nav.Pan(image.Pt(-stepX, 0)))
	case "up", "k":
		m = m.report(m.nav.Pan(image.Pt(0, stepY)))
	case "down", "j":
		m = m.report(m.nav.Pan(image.Pt(0, -stepY)))
	case "s":
		path, err := m.nav.SaveImage("")
		m = m.done("saved "+path, err)
	case "x":
		path, err := m.nav.ExportFrame("")
		m = m.done("exported "+path, err)
	case "w":
		id, err := m.session.SaveSession("tui")
		m = m.done("session "+id+" saved", err)
	case "t":
		m.theme = NextTheme(m.theme)
		m.st = newStyles(m.st.r, m.theme)
	case "c":
		m.cross = !m.cross
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Explorer) editKey(msg tea.KeyMsg) Explorer {
	switch msg.String() {
	case "esc":
		m.state = stateBrowse
	case "tab", "down":
		m.field = (m.field + 1) % len(m.fields)
	case "shift+tab", "up":
		m.field = (m.field + len(m.fields) - 1) % len(m.fields)
	case "enter":
		err := m.nav.CommitText(m.fields[0], m.fields[1], m.fields[2])
		if err == nil {
			m.state = stateBrowse
		}
		m = m.report(err)
	case "backspace":
		if f := m.fields[m.field]; len(f) > 0 {
			m.fields[m.field] = f[:len(f)-1]
		}
	case "ctrl+u":
		m.fields[m.field] = ""
	default:
		if msg.Type == tea.KeyRunes {
			m.fields[m.field] += string(msg.Runes)
		}
	}
	return m
}

func (m Explorer) presetKey(msg tea.KeyMsg) Explorer {
	switch msg.String() {
	case "esc", "q":
		m.state = stateBrowse
	case "up", "k":
		if m.presetIdx > 0 {
			m.presetIdx--
		}
	case "down", "j":
		if m.presetIdx < len(m.presets)-1 {
			m.presetIdx++
		}
	case "enter", " ":
		name := m.presets[m.presetIdx]
		p := config.GetPreset(name)
		c := m.nav.Canvas()
		err := m.nav.CommitDecimal(p.CenterX, p.CenterY, p.HalfSpanX, p.HalfSpanY(c.Width, c.Height))
		m.state = stateBrowse
		m = m.done("jumped to "+name, err)
	}
	return m
}

func (m Explorer) handleMouse(msg tea.MouseMsg) Explorer {
	if m.state != stateBrowse {
		return m
	}
	p := CellToPixel(msg.X, msg.Y-topRows)
	onCanvas := msg.Y >= topRows && msg.Y < topRows+m.canvas.Height && msg.X < m.canvas.Width

	switch {
	case msg.Button == tea.MouseButtonWheelUp && onCanvas:
		m = m.report(m.nav.Scroll(1, p))
	case msg.Button == tea.MouseButtonWheelDown && onCanvas:
		m = m.report(m.nav.Scroll(-1, p))
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && onCanvas:
		m = m.report(m.nav.BeginPan(p))
	case msg.Action == tea.MouseActionRelease && m.nav.Gesture() == nav.Panning:
		m = m.report(m.nav.EndPan(p))
	case msg.Action == tea.MouseActionMotion:
		if m.nav.Gesture() == nav.Panning {
			m.nav.DragTo(p)
		} else if onCanvas {
			m.nav.MouseMove(p)
		}
	}
	return m
}

// resize fits the canvas to the terminal; the controller repaints at the
// new pixel size.
func (m Explorer) resize(w, h int) Explorer {
	m.width, m.height = w, h
	cw, ch := max(w, 1), max(h-topRows-bottomRows, 1)
	if cw == m.canvas.Width && ch == m.canvas.Height {
		return m
	}
	m.canvas = NewCanvas(cw, ch)
	px, py := m.canvas.PixelSize()
	return m.report(m.nav.Resize(viewport.Canvas{Width: px, Height: py}))
}

func (m Explorer) report(err error) Explorer {
	if err != nil {
		m.message, m.failed = err.Error(), true
	}
	return m
}

func (m Explorer) done(ok string, err error) Explorer {
	if err != nil {
		return m.report(err)
	}
	m.message, m.failed = ok, false
	return m
}

func (m Explorer) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.viewTitle() + "\n")

	switch {
	case m.showHelp:
		b.WriteString(m.viewHelp())
	case m.state == statePresets:
		b.WriteString(m.viewPresets())
	default:
		m.canvas.DrawFrame(m.frame, m.session.Escape.Inside, m.nav.DragDelta())
		if m.cross {
			px, py := m.canvas.PixelSize()
			m.canvas.DrawCross(image.Pt(px/2, py/2), 3)
		}
		b.WriteString(m.canvas.Render(m.st.r))
	}
	b.WriteString("\n" + m.viewStatus())
	return b.String()
}

func (m Explorer) viewTitle() string {
	st := m.nav.Status()
	title := GradientText(m.st.r, "FRACZOOM", m.theme.Primary, m.theme.Secondary)
	state := "rendering"
	if m.nav.Current() {
		state = "ready"
	}
	return title + m.st.label.Render(fmt.Sprintf("  %s  depth %d  #%d  %s", st.Precision, st.Depth, st.Seq, state))
}

func (m Explorer) viewStatus() string {
	st := m.nav.Status()
	row := func(k, v string) string { return m.st.label.Render(k+" ") + m.st.value.Render(v) }

	var lines []string
	lines = append(lines, row("center", st.Center)+"  "+row("half", st.HalfSpan))
	lines = append(lines, row("min", st.Min)+"  "+row("max", st.Max))

	if m.state == stateEdit {
		var fb strings.Builder
		for i, v := range m.fields {
			name := m.st.label.Render(fieldNames[i] + " ")
			if i == m.field {
				fb.WriteString(m.st.cursor.Render("▸") + name + m.st.editing.Render(v+"_") + " ")
			} else {
				fb.WriteString(" " + name + m.st.value.Render(v) + " ")
			}
		}
		lines = append(lines, fb.String())
	} else {
		mouse := st.Mouse
		if mouse == "" {
			mouse = "-"
		}
		lines = append(lines, row("mouse", mouse)+"  "+row("gesture", st.Gesture.String()))
	}

	msg := m.message
	if msg == "" {
		msg = st.Notice
	}
	if m.failed {
		lines = append(lines, m.st.fail.Render(msg))
	} else {
		lines = append(lines, m.st.notice.Render(msg))
	}

	switch m.state {
	case stateEdit:
		lines = append(lines, m.st.hints("tab", "field", "enter", "commit", "esc", "cancel"))
	case statePresets:
		lines = append(lines, m.st.hints("j/k", "select", "enter", "jump", "esc", "back"))
	default:
		lines = append(lines, m.st.hints("wheel/+-", "zoom", "drag/arrows", "pan", "r", "revert", "e", "edit", "p", "presets", "?", "help", "q", "quit"))
	}
	return strings.Join(lines, "\n")
}

func (m Explorer) viewPresets() string {
	var b strings.Builder
	rows := 0
	for i, name := range m.presets {
		desc := config.GetPreset(name).Description
		if i == m.presetIdx {
			b.WriteString(fmt.Sprintf(" %s %s  %s\n", m.st.cursor.Render("▸"), m.st.value.Bold(true).Render(fmt.Sprintf("%-10s", name)), m.st.editing.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("   %s  %s\n", m.st.label.Render(fmt.Sprintf("%-10s", name)), m.st.hint.Render(desc)))
		}
		rows++
	}
	for ; rows < m.canvas.Height; rows++ {
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Explorer) viewHelp() string {
	lines := []string{
		m.st.title.Render("keys"),
		m.st.hints("wheel", "zoom at cursor", "+/-", "zoom at centre"),
		m.st.hints("drag", "pan", "arrows/hjkl", "pan an eighth"),
		m.st.hints("r", "revert", "enter", "repaint", "e", "edit coordinates"),
		m.st.hints("s", "save image", "x", "export frame", "w", "write session"),
		m.st.hints("p", "presets", "t", "theme", "c", "crosshair"),
	}
	for len(lines) < m.canvas.Height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// NewProgram builds a program for s and routes its frames into it.
func NewProgram(s *app.Session, opts Options, progOpts ...tea.ProgramOption) *tea.Program {
	progOpts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseAllMotion()}, progOpts...)
	p := tea.NewProgram(NewExplorer(s, opts), progOpts...)
	s.OnFrame(func(f *frame.Frame) { p.Send(FrameMsg{Frame: f}) })
	return p
}

// Run drives s in the terminal until the user quits.
func Run(s *app.Session, opts Options) error {
	p := NewProgram(s, opts)
	defer s.OnFrame(nil)
	_, err := p.Run()
	return err
}
