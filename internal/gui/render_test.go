package gui

import (
	"image"
	"image/color"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestWheelTicks(t *testing.T) {
	for _, tt := range []struct {
		move float32
		want int
	}{
		{0, 0}, {0.2, 1}, {-0.4, -1}, {1, 1}, {2.7, 2}, {-3, -3},
	} {
		if got := wheelTicks(tt.move); got != tt.want {
			t.Errorf("wheelTicks(%v) = %d, want %d", tt.move, got, tt.want)
		}
	}
}

func TestToPixel(t *testing.T) {
	if p := toPixel(rl.NewVector2(13, 9), 4); p != image.Pt(3, 2) {
		t.Errorf("unexpected pixel %v", p)
	}
	if p := toPixel(rl.NewVector2(13, 9), 0); p != image.Pt(13, 9) {
		t.Errorf("expected scale 1 fallback, got %v", p)
	}
}

func TestFieldEditor(t *testing.T) {
	var e fieldEditor
	e.open("abcd", "1", "2")
	e.insert('e')
	e.insert('\b')
	if e.fields[0] != "abcde" {
		t.Errorf("unexpected field %q", e.fields[0])
	}
	e.next()
	e.backspace()
	e.backspace()
	if e.fields[1] != "" {
		t.Errorf("expected empty field, got %q", e.fields[1])
	}
	e.next()
	e.next()
	if e.field != 0 {
		t.Errorf("expected wrap to first field, got %d", e.field)
	}
}

func TestPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 0, color.RGBA{R: 9, A: 255})
	px := pixels(img)
	if len(px) != 4 || px[1].R != 9 {
		t.Errorf("unexpected pixels %v", px)
	}
}
