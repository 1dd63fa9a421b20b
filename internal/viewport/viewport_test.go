package viewport

import (
	"errors"
	"math"
	"math/big"
	"math/rand"
	"strings"
	"testing"

	"github.com/san-kum/fraczoom/internal/codec"
	"github.com/san-kum/fraczoom/internal/precision"
)

var f64 = precision.Float64{}

func pt(x, y float64) Point[float64] { return Point[float64]{X: x, Y: y} }

func mustViewport(t *testing.T, center, half Point[float64]) Viewport[float64] {
	t.Helper()
	v, err := FromCenterSpan[float64](f64, center, half)
	if err != nil {
		t.Fatalf("FromCenterSpan failed: %v", err)
	}
	return v
}

func TestFromCenterSpan_RejectsNonPositive(t *testing.T) {
	tests := []struct {
		name string
		half Point[float64]
		axis Axis
	}{
		{"zero x", pt(0, 1), AxisX},
		{"negative x", pt(-1, 1), AxisX},
		{"zero y", pt(1, 0), AxisY},
		{"negative y", pt(1, -0.5), AxisY},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromCenterSpan[float64](f64, pt(0, 0), tt.half)
			if !errors.Is(err, ErrInvalidSpan) {
				t.Fatalf("expected ErrInvalidSpan, got %v", err)
			}
			var spanErr *SpanError
			if !errors.As(err, &spanErr) || spanErr.Axis != tt.axis {
				t.Errorf("expected axis %s, got %v", tt.axis, err)
			}
		})
	}
}

func TestCorners_MinBelowMax(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		center := pt(rng.Float64()*10-5, rng.Float64()*10-5)
		half := pt(rng.Float64()+1e-9, rng.Float64()+1e-9)
		v := mustViewport(t, center, half)

		min, max := v.Corners()
		if !(min.X < max.X && min.Y < max.Y) {
			t.Fatalf("corners not ordered for %v: min=%v max=%v", v, min, max)
		}
	}
}

func TestCorners_BigFloat(t *testing.T) {
	num := precision.NewBigFloat(256)
	cx, _ := num.Parse("-0.743643887037158704752191506114774")
	half := num.MulFloat(num.FromFloat64(1), 1e-40)
	v, err := FromCenterSpan[*big.Float](num, Point[*big.Float]{X: cx, Y: num.FromFloat64(0.1)}, Point[*big.Float]{X: half, Y: half})
	if err != nil {
		t.Fatalf("FromCenterSpan failed: %v", err)
	}
	min, max := v.Corners()
	if min.X.Cmp(max.X) >= 0 || min.Y.Cmp(max.Y) >= 0 {
		t.Errorf("corners not ordered at 1e-40 half-span")
	}
}

func TestParseSpanText(t *testing.T) {
	got, err := ParseSpanText[float64](f64, "1.5", "0.75")
	if err != nil {
		t.Fatalf("ParseSpanText failed: %v", err)
	}
	if got.X != 1.5 || got.Y != 0.75 {
		t.Errorf("expected (1.5, 0.75), got %v", got)
	}
}

func TestParseSpanText_TagsAxis(t *testing.T) {
	tests := []struct {
		x, y    string
		axis    Axis
		raw     string
		notSeen string
	}{
		{"abc", "2.0", AxisX, "abc", "2.0"},
		{"1.0", "oops", AxisY, "oops", "1.0"},
		{"abc", "oops", AxisX, "abc", "oops"},
	}

	for _, tt := range tests {
		_, err := ParseSpanText[float64](f64, tt.x, tt.y)
		var perr *SpanParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected *SpanParseError, got %v", err)
		}
		if perr.Axis != tt.axis || perr.RawText != tt.raw {
			t.Errorf("expected {%s %q}, got {%s %q}", tt.axis, tt.raw, perr.Axis, perr.RawText)
		}
		if !strings.Contains(err.Error(), tt.raw) {
			t.Errorf("message %q missing %q", err, tt.raw)
		}
		if strings.Contains(err.Error(), tt.notSeen) {
			t.Errorf("message %q leaks other axis text %q", err, tt.notSeen)
		}
		if !errors.Is(err, ErrSpanParse) {
			t.Error("expected errors.Is ErrSpanParse")
		}
	}
}

func TestRecenterKeepsSpan(t *testing.T) {
	v := mustViewport(t, pt(0, 0), pt(2, 1))
	r, err := v.Recenter(pt(3, -4))
	if err != nil {
		t.Fatal(err)
	}
	if r.Center() != pt(3, -4) || r.HalfSpan() != pt(2, 1) {
		t.Errorf("unexpected recenter result %v", r)
	}
	if v.Center() != pt(0, 0) {
		t.Error("recenter mutated the original")
	}
}

func TestRecenter_RejectsNonFinite(t *testing.T) {
	v := mustViewport(t, pt(0, 0), pt(2, 1))
	for _, c := range []Point[float64]{pt(math.Inf(1), 0), pt(0, math.NaN())} {
		if _, err := v.Recenter(c); !errors.Is(err, ErrInvalidCenter) {
			t.Errorf("Recenter(%v): expected ErrInvalidCenter, got %v", c, err)
		}
	}
}

func TestScale_RejectsOverflow(t *testing.T) {
	v := mustViewport(t, pt(0, 0), pt(1e300, 1e300))
	_, err := v.Scale(1e300)
	if !errors.Is(err, ErrInvalidSpan) {
		t.Fatalf("expected ErrInvalidSpan, got %v", err)
	}
	var se *SpanError
	if !errors.As(err, &se) || se.Axis != AxisX || se.Value != "+Inf" {
		t.Errorf("unexpected span error %v", err)
	}

	bf := precision.NewBigFloat(64)
	huge, _ := bf.Parse("1e300")
	if !bf.IsFinite(bf.MulFloat(huge, 1e300)) {
		t.Error("big.Float should hold 1e600")
	}
}

func TestScale(t *testing.T) {
	v := mustViewport(t, pt(1, 1), pt(2, 1))
	s, err := v.Scale(0.5)
	if err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	if s.HalfSpan() != pt(1, 0.5) || s.Center() != pt(1, 1) {
		t.Errorf("unexpected scaled viewport %v", s)
	}
	if _, err := v.Scale(0); !errors.Is(err, ErrInvalidSpan) {
		t.Errorf("expected ErrInvalidSpan for zero factor, got %v", err)
	}
}

func TestPixelToWorld(t *testing.T) {
	v := mustViewport(t, pt(0, 0), pt(2, 1))
	c := Canvas{Width: 400, Height: 200}

	tests := []struct {
		px, py int
		want   Point[float64]
	}{
		{0, 0, pt(-2, -1)},
		{200, 100, pt(0, 0)},
		{400, 200, pt(2, 1)},
		{100, 50, pt(-1, -0.5)},
		{-200, 300, pt(-4, 2)},
	}

	for _, tt := range tests {
		got, err := PixelToWorld(tt.px, tt.py, c, v)
		if err != nil {
			t.Fatalf("PixelToWorld failed: %v", err)
		}
		if math.Abs(got.X-tt.want.X) > 1e-12 || math.Abs(got.Y-tt.want.Y) > 1e-12 {
			t.Errorf("PixelToWorld(%d,%d) = %v, want %v", tt.px, tt.py, got, tt.want)
		}
	}
}

func TestWorldToPixel_RoundTrip(t *testing.T) {
	v := mustViewport(t, pt(-0.5, 0.25), pt(1.5, 1.2))
	c := Canvas{Width: 317, Height: 211}

	for px := -20; px < c.Width+20; px += 7 {
		for py := -20; py < c.Height+20; py += 5 {
			w, err := PixelToWorld(px, py, c, v)
			if err != nil {
				t.Fatal(err)
			}
			fx, fy, err := WorldToPixel(w, c, v)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(fx-float64(px)) >= 1 || math.Abs(fy-float64(py)) >= 1 {
				t.Fatalf("pixel (%d,%d) came back as (%f,%f)", px, py, fx, fy)
			}
		}
	}
}

func TestWorldToPixel_OutsideIsNotClamped(t *testing.T) {
	v := mustViewport(t, pt(0, 0), pt(1, 1))
	c := Canvas{Width: 100, Height: 100}
	fx, fy, err := WorldToPixel(pt(3, -3), c, v)
	if err != nil {
		t.Fatal(err)
	}
	if fx <= float64(c.Width) || fy >= 0 {
		t.Errorf("expected out-of-canvas pixel, got (%f,%f)", fx, fy)
	}
}

func TestMapper_InvalidCanvas(t *testing.T) {
	v := mustViewport(t, pt(0, 0), pt(1, 1))
	for _, c := range []Canvas{{0, 10}, {10, 0}, {0, 0}, {-5, 10}} {
		if _, err := PixelToWorld(1, 1, c, v); !errors.Is(err, ErrInvalidCanvas) {
			t.Errorf("PixelToWorld on %v: expected ErrInvalidCanvas, got %v", c, err)
		}
		if _, _, err := WorldToPixel(pt(0, 0), c, v); !errors.Is(err, ErrInvalidCanvas) {
			t.Errorf("WorldToPixel on %v: expected ErrInvalidCanvas, got %v", c, err)
		}
		if _, err := GridOf(c, v); !errors.Is(err, ErrInvalidCanvas) {
			t.Errorf("GridOf on %v: expected ErrInvalidCanvas, got %v", c, err)
		}
	}
}

func TestGridMatchesMapper(t *testing.T) {
	v := mustViewport(t, pt(-0.75, 0.1), pt(0.5, 0.25))
	c := Canvas{Width: 64, Height: 32}
	g, err := GridOf(c, v)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range [][2]int{{0, 0}, {63, 31}, {10, 20}} {
		w, _ := PixelToWorld(p[0], p[1], c, v)
		gx := g.X0 + float64(p[0])*g.DX
		gy := g.Y0 + float64(p[1])*g.DY
		if math.Abs(gx-w.X) > 1e-12 || math.Abs(gy-w.Y) > 1e-12 {
			t.Errorf("grid (%f,%f) != mapper %v at %v", gx, gy, w, p)
		}
	}
}

func TestCenterBinary_HexRoundTrip(t *testing.T) {
	num := precision.NewBigFloat(128)
	c := codec.New[Point[*big.Float]](CenterBinary[*big.Float]{Num: num})
	if c.Width() != 2*num.Width() {
		t.Fatalf("expected width %d, got %d", 2*num.Width(), c.Width())
	}

	x, _ := num.Parse("-1.25e-20")
	y, _ := num.Parse("0.3333333333333333333333333")
	text := c.Encode(Point[*big.Float]{X: x, Y: y})
	if len(text) != 2*c.Width() {
		t.Fatalf("expected %d hex digits, got %d", 2*c.Width(), len(text))
	}

	got, err := c.Decode(strings.ToLower(text))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.X.Cmp(x) != 0 || got.Y.Cmp(y) != 0 {
		t.Errorf("round trip mismatch: %v", got)
	}
}

func TestCenterBinary_WidthMismatchAcrossPrecisions(t *testing.T) {
	wide := codec.New[Point[*big.Float]](CenterBinary[*big.Float]{Num: precision.NewBigFloat(256)})
	narrow := codec.New[Point[float64]](CenterBinary[float64]{Num: f64})

	text := narrow.Encode(pt(1, 2))
	_, err := wide.Decode(text)
	var lenErr *codec.LengthError
	if !errors.As(err, &lenErr) {
		t.Fatalf("expected LengthError, got %v", err)
	}
	if lenErr.Expected != wide.Width() || lenErr.Actual != 16 {
		t.Errorf("unexpected mismatch (%d,%d)", lenErr.Expected, lenErr.Actual)
	}
}
