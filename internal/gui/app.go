package gui

import (
	"fmt"
	"image"
	"os"
	"sync/atomic"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/fraczoom/internal/app"
	"github.com/san-kum/fraczoom/internal/frame"
	"github.com/san-kum/fraczoom/internal/nav"
)

// Theme Colors (Monochrome Hyper-Minimalist)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColError   = rl.NewColor(230, 80, 80, 255)
)

const (
	hudHeight = 132
	minWidth  = 720
	fontPath  = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"
)

type App struct {
	Session *app.Session
	Nav     nav.Navigator
	Scale   int
	Font    rl.Font

	width, height int32

	// latest accepted frame, written by the render goroutine
	pending atomic.Pointer[frame.Frame]
	shown   uint64
	tex     rl.Texture2D
	texW    int
	texH    int

	editor  fieldEditor
	message string
	failed  bool
	quit    bool
}

func initWindow(w, h int32) {
	rl.InitWindow(w, h, "fraczoom")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont uses Liberation Mono when present and the raylib default
// otherwise.
func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// Run opens a window of canvas*scale pixels over s and blocks until it
// is closed.
func Run(s *app.Session) {
	scale := max(s.Config.Canvas.Scale, 1)
	c := s.Nav.Canvas()
	w := int32(max(c.Width*scale, minWidth))
	h := int32(c.Height*scale + hudHeight)

	initWindow(w, h)
	defer rl.CloseWindow()

	a := &App{Session: s, Nav: s.Nav, Scale: scale, Font: loadFont(), width: w, height: h}
	s.OnFrame(func(f *frame.Frame) { a.pending.Store(f) })
	defer s.OnFrame(nil)

	a.Nav.Repaint()
	a.RunLoop()
	if a.texW > 0 {
		rl.UnloadTexture(a.tex)
	}
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() && !a.quit {
		a.Update()
		a.Draw()
	}
}

func (a *App) Update() {
	a.uploadFrame()

	if a.editor.active {
		a.updateEditor()
		return
	}

	mouse := rl.GetMousePosition()
	p := toPixel(mouse, a.Scale)
	c := a.Nav.Canvas()
	onCanvas := p.X >= 0 && p.Y >= 0 && p.X < c.Width && p.Y < c.Height

	if ticks := wheelTicks(rl.GetMouseWheelMove()); ticks != 0 && onCanvas {
		a.report(a.Nav.Scroll(ticks, p))
	}

	switch {
	case rl.IsMouseButtonPressed(rl.MouseLeftButton) && onCanvas:
		a.report(a.Nav.BeginPan(p))
	case rl.IsMouseButtonReleased(rl.MouseLeftButton) && a.Nav.Gesture() == nav.Panning:
		a.report(a.Nav.EndPan(p))
	case rl.IsMouseButtonDown(rl.MouseLeftButton) && a.Nav.Gesture() == nav.Panning:
		a.Nav.DragTo(p)
	case onCanvas:
		a.Nav.MouseMove(p)
	}

	center := image.Pt(c.Width/2, c.Height/2)
	step := image.Pt(max(c.Width/8, 1), max(c.Height/8, 1))

	switch {
	case rl.IsKeyPressed(rl.KeyQ):
		a.quit = true
	case rl.IsKeyPressed(rl.KeyEscape) && a.Nav.Gesture() == nav.Panning:
		a.Nav.CancelPan()
	case rl.IsKeyPressed(rl.KeyR):
		a.report(a.Nav.Revert())
	case rl.IsKeyPressed(rl.KeyEnter):
		a.Nav.Repaint()
	case rl.IsKeyPressed(rl.KeyEqual), rl.IsKeyPressed(rl.KeyKpAdd):
		a.report(a.Nav.Scroll(1, center))
	case rl.IsKeyPressed(rl.KeyMinus), rl.IsKeyPressed(rl.KeyKpSubtract):
		a.report(a.Nav.Scroll(-1, center))
	case rl.IsKeyPressed(rl.KeyLeft):
		a.report(a.Nav.Pan(image.Pt(step.X, 0)))
	case rl.IsKeyPressed(rl.KeyRight):
		a.report(a.Nav.Pan(image.Pt(-step.X, 0)))
	case rl.IsKeyPressed(rl.KeyUp):
		a.report(a.Nav.Pan(image.Pt(0, step.Y)))
	case rl.IsKeyPressed(rl.KeyDown):
		a.report(a.Nav.Pan(image.Pt(0, -step.Y)))
	case rl.IsKeyPressed(rl.KeyS):
		path, err := a.Nav.SaveImage("")
		a.done("saved "+path, err)
	case rl.IsKeyPressed(rl.KeyX):
		path, err := a.Nav.ExportFrame("")
		a.done("exported "+path, err)
	case rl.IsKeyPressed(rl.KeyW):
		id, err := a.Session.SaveSession("gui")
		a.done("session "+id+" saved", err)
	case rl.IsKeyPressed(rl.KeyE):
		f := a.Nav.Fields()
		a.editor.open(f.CenterHex, f.SpanX, f.SpanY)
		// drain the 'e' so it does not land in the field
		for rl.GetCharPressed() != 0 {
		}
	}
}

func (a *App) updateEditor() {
	for ch := rl.GetCharPressed(); ch != 0; ch = rl.GetCharPressed() {
		a.editor.insert(rune(ch))
	}
	switch {
	case rl.IsKeyPressed(rl.KeyEscape):
		a.editor.active = false
	case rl.IsKeyPressed(rl.KeyTab):
		a.editor.next()
	case rl.IsKeyPressed(rl.KeyBackspace):
		a.editor.backspace()
	case rl.IsKeyPressed(rl.KeyEnter):
		f := a.editor.fields
		err := a.Nav.CommitText(f[0], f[1], f[2])
		if err == nil {
			a.editor.active = false
		}
		a.done("", err)
	}
}

// uploadFrame moves the newest frame into the GPU texture.
func (a *App) uploadFrame() {
	f := a.pending.Load()
	if f == nil || f.Seq == a.shown || !f.HasImage() {
		return
	}
	a.shown = f.Seq
	if f.Cols != a.texW || f.Rows != a.texH {
		if a.texW > 0 {
			rl.UnloadTexture(a.tex)
		}
		a.tex = rl.LoadTextureFromImage(rl.NewImageFromImage(f.Image))
		a.texW, a.texH = f.Cols, f.Rows
		return
	}
	rl.UpdateTexture(a.tex, pixels(f.Image))
}

func (a *App) report(err error) {
	if err != nil {
		a.message, a.failed = err.Error(), true
	}
}

func (a *App) done(ok string, err error) {
	if err != nil {
		a.report(err)
		return
	}
	a.message, a.failed = ok, false
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	a.drawFrame()
	a.DrawHUD()

	rl.EndDrawing()
}

func (a *App) drawFrame() {
	if a.texW == 0 {
		a.drawText("rendering...", 30, 30, 20, ColTextDim)
		return
	}
	d := a.Nav.DragDelta()
	pos := rl.NewVector2(float32(d.X*a.Scale), float32(d.Y*a.Scale))
	rl.DrawTextureEx(a.tex, pos, 0, float32(a.Scale), rl.White)
}

func (a *App) DrawHUD() {
	st := a.Nav.Status()
	c := a.Nav.Canvas()
	y := c.Height*a.Scale + 12

	a.drawText("fraczoom", 20, y, 22, ColSelect)
	a.drawText(fmt.Sprintf(":: %s  depth %d  #%d", st.Precision, st.Depth, st.Seq), 140, y+4, 16, ColText)

	if a.editor.active {
		for i, v := range a.editor.fields {
			col, mark := ColText, " "
			if i == a.editor.field {
				col, mark = ColSelect, ">"
			}
			a.drawText(fmt.Sprintf("%s %-7s %s", mark, fieldNames[i], v), 20, y+30+i*20, 16, col)
		}
		a.drawText("[TAB] FIELD  [ENTER] COMMIT  [ESC] CANCEL", 20, int(a.height)-20, 14, ColTextDim)
		return
	}

	a.drawText("center "+st.Center, 20, y+30, 16, ColAccent)
	a.drawText(fmt.Sprintf("min %s  max %s", st.Min, st.Max), 20, y+50, 14, ColText)
	mouse := st.Mouse
	if mouse == "" {
		mouse = "-"
	}
	a.drawText("mouse "+mouse, 20, y+68, 14, ColText)

	msg, col := a.message, ColAccent
	if msg == "" {
		msg = st.Notice
	}
	if a.failed {
		col = ColError
	}
	a.drawText(msg, 20, y+86, 14, col)

	a.drawText("[WHEEL] ZOOM  [DRAG] PAN  [R] REVERT  [E] EDIT  [S] SAVE  [X] EXPORT  [W] SESSION  [Q] QUIT", 20, int(a.height)-20, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), int(a.width)-80, int(a.height)-20, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}
