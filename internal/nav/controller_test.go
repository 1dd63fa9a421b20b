package nav_test

import (
	"errors"
	"image"
	"math/big"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fraczoom/internal/codec"
	"github.com/san-kum/fraczoom/internal/export"
	"github.com/san-kum/fraczoom/internal/frame"
	"github.com/san-kum/fraczoom/internal/logging"
	"github.com/san-kum/fraczoom/internal/metrics"
	"github.com/san-kum/fraczoom/internal/nav"
	"github.com/san-kum/fraczoom/internal/precision"
	"github.com/san-kum/fraczoom/internal/viewport"
)

type repaints[T any] struct {
	mu   sync.Mutex
	reqs []frame.Request[T]
}

func (r *repaints[T]) Repaint(req frame.Request[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *repaints[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

func (r *repaints[T]) Seqs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seqs := make([]uint64, len(r.reqs))
	for i, req := range r.reqs {
		seqs[i] = req.Seq
	}
	return seqs
}

func (r *repaints[T]) Last() frame.Request[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[len(r.reqs)-1]
}

var f64 = precision.Float64{}

func view64(cx, cy, hx, hy float64) viewport.Viewport[float64] {
	v, err := viewport.FromCenterSpan[float64](f64,
		viewport.Point[float64]{X: cx, Y: cy},
		viewport.Point[float64]{X: hx, Y: hy})
	Expect(err).NotTo(HaveOccurred())
	return v
}

func hex64(x, y float64) string {
	return codec.New[viewport.Point[float64]](viewport.CenterBinary[float64]{Num: f64}).
		Encode(viewport.Point[float64]{X: x, Y: y})
}

func testFrame(seq uint64) *frame.Frame {
	f := frame.New(seq, 4, 6, 2)
	f.SetUint16(1, 2, 42)
	return f
}

var _ = Describe("Controller", func() {
	var (
		canvas  viewport.Canvas
		painter *repaints[float64]
		rec     *metrics.Recorder
		opts    nav.Options
		ctrl    *nav.Controller[float64]
		initial viewport.Viewport[float64]
	)

	BeforeEach(func() {
		canvas = viewport.Canvas{Width: 200, Height: 100}
		painter = &repaints[float64]{}
		rec = metrics.NewRecorder()
		opts = nav.Options{Logger: logging.Discard(), Metrics: rec, ExportDir: GinkgoT().TempDir()}
		initial = view64(-0.5, 0, 2, 1)
	})

	JustBeforeEach(func() {
		var err error
		ctrl, err = nav.New(initial, canvas, painter, opts)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("rejects an empty canvas", func() {
			_, err := nav.New(initial, viewport.Canvas{Width: 0, Height: 10}, painter, opts)
			Expect(err).To(MatchError(viewport.ErrInvalidCanvas))
		})

		It("rejects a zoom speed that does not zoom", func() {
			opts.ZoomSpeed = 1
			_, err := nav.New(initial, canvas, painter, opts)
			Expect(err).To(MatchError(nav.ErrInvalidFactor))
		})

		It("rejects unknown anchor modes", func() {
			opts.Anchor = "sideways"
			_, err := nav.New(initial, canvas, painter, opts)
			Expect(err).To(MatchError(nav.ErrInvalidAnchor))
		})

		It("starts with the initial view as the only entry", func() {
			Expect(ctrl.Depth()).To(Equal(1))
			Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
			Expect(ctrl.ZoomSpeed()).To(Equal(nav.DefaultZoomSpeed))
			Expect(painter.Count()).To(BeZero())
		})
	})

	Describe("Zoom", func() {
		It("keeps the anchor pixel over the same world point", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 50; i++ {
				anchor := image.Pt(rng.Intn(canvas.Width), rng.Intn(canvas.Height))
				factor := 0.25 + rng.Float64()*3
				before := ctrl.Viewport()
				world, err := viewport.PixelToWorld(anchor.X, anchor.Y, canvas, before)
				Expect(err).NotTo(HaveOccurred())

				Expect(ctrl.Zoom(factor, anchor)).To(Succeed())

				px, py, err := viewport.WorldToPixel(world, canvas, ctrl.Viewport())
				Expect(err).NotTo(HaveOccurred())
				Expect(px).To(BeNumerically("~", float64(anchor.X), 1e-6))
				Expect(py).To(BeNumerically("~", float64(anchor.Y), 1e-6))
			}
		})

		It("scales the spans, pushes history and repaints", func() {
			Expect(ctrl.Zoom(0.5, canvas.Center())).To(Succeed())

			half := ctrl.Viewport().HalfSpan()
			Expect(half.X).To(Equal(1.0))
			Expect(half.Y).To(Equal(0.5))
			Expect(ctrl.Depth()).To(Equal(2))
			Expect(painter.Count()).To(Equal(1))
			Expect(painter.Last().Viewport.Equal(ctrl.Viewport())).To(BeTrue())
			Expect(painter.Last().Entry).To(Equal(ctrl.Top().Seq))
		})

		It("zooms in on wheel up and out on wheel down", func() {
			Expect(ctrl.Scroll(1, canvas.Center())).To(Succeed())
			Expect(ctrl.Viewport().HalfSpan().X).To(Equal(1.0))

			Expect(ctrl.Scroll(-2, canvas.Center())).To(Succeed())
			Expect(ctrl.Viewport().HalfSpan().X).To(Equal(4.0))

			Expect(ctrl.Scroll(0, canvas.Center())).To(Succeed())
			Expect(ctrl.Depth()).To(Equal(3))
		})

		It("rejects invalid factors without mutating", func() {
			for _, f := range []float64{0, -2} {
				err := ctrl.Zoom(f, canvas.Center())
				Expect(err).To(MatchError(nav.ErrInvalidFactor))
			}
			Expect(ctrl.Depth()).To(Equal(1))
			Expect(painter.Count()).To(BeZero())
			Expect(ctrl.Notice()).To(ContainSubstring("zoom factor"))
		})

		It("rejects a zoom that overflows the spans and keeps the last view", func() {
			Expect(ctrl.Zoom(1e300, image.Pt(50, 50))).To(Succeed())
			last := ctrl.Viewport()
			fields := ctrl.Fields()

			err := ctrl.Zoom(1e300, image.Pt(50, 50))
			Expect(err).To(MatchError(viewport.ErrInvalidSpan))
			Expect(ctrl.Viewport().Equal(last)).To(BeTrue())
			Expect(ctrl.Depth()).To(Equal(2))
			Expect(ctrl.Fields()).To(Equal(fields))

			Expect(ctrl.CommitText(fields.CenterHex, fields.SpanX, fields.SpanY)).To(Succeed())
			Expect(ctrl.Depth()).To(Equal(2))
		})

		It("is refused while a drag is in progress", func() {
			Expect(ctrl.BeginPan(image.Pt(10, 10))).To(Succeed())
			Expect(ctrl.Zoom(0.5, image.Pt(10, 10))).To(MatchError(nav.ErrGestureActive))
			Expect(ctrl.Depth()).To(Equal(1))
		})

		Context("in recenter mode", func() {
			BeforeEach(func() { opts.Anchor = nav.AnchorRecenter })

			It("moves the anchor's world point to the center", func() {
				anchor := image.Pt(150, 25)
				world, err := viewport.PixelToWorld(anchor.X, anchor.Y, canvas, initial)
				Expect(err).NotTo(HaveOccurred())

				Expect(ctrl.Zoom(0.5, anchor)).To(Succeed())
				Expect(ctrl.Viewport().Center()).To(Equal(world))
			})
		})

		Context("with a history limit", func() {
			BeforeEach(func() { opts.HistoryLimit = 3 })

			It("never grows past the limit and keeps the floor", func() {
				for i := 0; i < 10; i++ {
					Expect(ctrl.Zoom(0.9, canvas.Center())).To(Succeed())
				}
				Expect(ctrl.Depth()).To(Equal(3))
				Expect(ctrl.Entries()[0].Viewport.Equal(initial)).To(BeTrue())
			})
		})
	})

	Describe("Pan", func() {
		It("moves the center against the pointer at the current scale", func() {
			Expect(ctrl.Pan(image.Pt(10, -5))).To(Succeed())
			c := ctrl.Viewport().Center()
			Expect(c.X).To(BeNumerically("~", -0.7, 1e-12))
			Expect(c.Y).To(BeNumerically("~", 0.1, 1e-12))
			Expect(ctrl.Viewport().HalfSpan()).To(Equal(initial.HalfSpan()))
			Expect(ctrl.Depth()).To(Equal(2))
			Expect(painter.Count()).To(Equal(1))
		})

		Context("at the edge of float64 range", func() {
			BeforeEach(func() { initial = view64(0, 0, 1e308, 1e308) })

			It("rejects a pan that overflows the center", func() {
				err := ctrl.Pan(image.Pt(-200, 0))
				Expect(err).To(MatchError(viewport.ErrInvalidCenter))
				Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
				Expect(ctrl.Depth()).To(Equal(1))
				Expect(painter.Count()).To(BeZero())
			})
		})

		It("treats a zero delta as a no-op", func() {
			Expect(ctrl.Pan(image.Point{})).To(Succeed())
			Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
			Expect(ctrl.Depth()).To(Equal(1))
			Expect(painter.Count()).To(BeZero())
		})

		It("commits one entry per drag", func() {
			Expect(ctrl.BeginPan(image.Pt(100, 50))).To(Succeed())
			Expect(ctrl.Gesture()).To(Equal(nav.Panning))
			Expect(ctrl.DragTo(image.Pt(105, 52))).To(Equal(image.Pt(5, 2)))
			Expect(ctrl.DragTo(image.Pt(110, 50))).To(Equal(image.Pt(10, 0)))
			Expect(ctrl.DragDelta()).To(Equal(image.Pt(10, 0)))
			Expect(ctrl.Depth()).To(Equal(1))

			Expect(ctrl.EndPan(image.Pt(110, 50))).To(Succeed())
			Expect(ctrl.Gesture()).To(Equal(nav.Idle))
			Expect(ctrl.Depth()).To(Equal(2))
			Expect(ctrl.Viewport().Center().X).To(BeNumerically("~", -0.7, 1e-12))
			Expect(painter.Count()).To(Equal(1))
		})

		It("leaves the viewport alone when a drag is cancelled", func() {
			Expect(ctrl.BeginPan(image.Pt(0, 0))).To(Succeed())
			ctrl.DragTo(image.Pt(30, 30))
			ctrl.CancelPan()
			Expect(ctrl.Gesture()).To(Equal(nav.Idle))
			Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
			Expect(ctrl.EndPan(image.Pt(30, 30))).To(MatchError(nav.ErrNoGesture))
		})

		It("refuses a second drag", func() {
			Expect(ctrl.BeginPan(image.Pt(0, 0))).To(Succeed())
			Expect(ctrl.BeginPan(image.Pt(1, 1))).To(MatchError(nav.ErrGestureActive))
		})
	})

	Describe("Revert", func() {
		It("fails at the floor and leaves everything unchanged", func() {
			err := ctrl.Revert()
			Expect(err).To(MatchError(nav.ErrHistoryEmpty))
			Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
			Expect(painter.Count()).To(BeZero())
			Expect(ctrl.Notice()).NotTo(BeEmpty())
		})

		It("returns the previous view and repaints it", func() {
			Expect(ctrl.Zoom(0.5, image.Pt(20, 20))).To(Succeed())
			Expect(ctrl.Pan(image.Pt(3, 3))).To(Succeed())
			Expect(ctrl.Revert()).To(Succeed())
			Expect(ctrl.Revert()).To(Succeed())
			Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
			Expect(painter.Count()).To(Equal(4))
			Expect(painter.Last().Viewport.Equal(initial)).To(BeTrue())
			Expect(ctrl.Revert()).To(MatchError(nav.ErrHistoryEmpty))
		})
	})

	Describe("CommitText", func() {
		It("applies all three fields together", func() {
			Expect(ctrl.CommitText(hex64(0.25, -0.125), "0.5", "0.25")).To(Succeed())
			v := ctrl.Viewport()
			Expect(v.Center()).To(Equal(viewport.Point[float64]{X: 0.25, Y: -0.125}))
			Expect(v.HalfSpan()).To(Equal(viewport.Point[float64]{X: 0.5, Y: 0.25}))
			Expect(ctrl.Depth()).To(Equal(2))
			Expect(painter.Count()).To(Equal(1))
		})

		It("accepts lowercase and prefixed hex", func() {
			Expect(ctrl.CommitText("0x"+strings.ToLower(hex64(1, 2)), "1", "1")).To(Succeed())
			Expect(ctrl.Viewport().Center()).To(Equal(viewport.Point[float64]{X: 1, Y: 2}))
		})

		It("repaints without pushing when nothing changed", func() {
			fields := ctrl.Fields()
			Expect(ctrl.CommitText(fields.CenterHex, fields.SpanX, fields.SpanY)).To(Succeed())
			Expect(ctrl.Depth()).To(Equal(1))
			Expect(painter.Count()).To(Equal(1))
		})

		It("names the failing span axis and its raw text", func() {
			err := ctrl.CommitText(hex64(0, 0), "abc", "1.0")

			var spanErr *viewport.SpanParseError
			Expect(errors.As(err, &spanErr)).To(BeTrue())
			Expect(spanErr.Axis).To(Equal(viewport.AxisX))
			Expect(spanErr.RawText).To(Equal("abc"))
			Expect(err.Error()).To(ContainSubstring(`"abc"`))
			Expect(err.Error()).NotTo(ContainSubstring("1.0"))
			Expect(ctrl.Notice()).To(ContainSubstring("abc"))
			Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
			Expect(painter.Count()).To(BeZero())
		})

		It("rejects malformed hex before looking at the spans", func() {
			Expect(ctrl.CommitText("zz", "1", "1")).To(MatchError(codec.ErrInvalidHexFormat))
			Expect(ctrl.Notice()).To(ContainSubstring(`"zz"`))
		})

		It("rejects hex of the wrong width", func() {
			err := ctrl.CommitText("ABCD", "1", "1")
			var lenErr *codec.LengthError
			Expect(errors.As(err, &lenErr)).To(BeTrue())
			Expect(lenErr.Expected).To(Equal(16))
			Expect(lenErr.Actual).To(Equal(2))
		})

		It("rejects non-positive spans without partial updates", func() {
			Expect(ctrl.CommitText(hex64(3, 3), "1", "-1")).To(MatchError(viewport.ErrInvalidSpan))
			Expect(ctrl.CommitText(hex64(3, 3), "0", "1")).To(MatchError(viewport.ErrInvalidSpan))
			Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
			Expect(ctrl.Depth()).To(Equal(1))
		})

		It("accepts decimal centers", func() {
			Expect(ctrl.CommitDecimal("-0.75", "0.1", "0.05", "0.025")).To(Succeed())
			Expect(ctrl.Viewport().Center()).To(Equal(viewport.Point[float64]{X: -0.75, Y: 0.1}))
			Expect(ctrl.CommitDecimal("nope", "0", "1", "1")).To(MatchError(precision.ErrSyntax))
		})
	})

	Describe("status", func() {
		It("tracks the mouse world coordinate on every move", func() {
			Expect(ctrl.Status().Mouse).To(BeEmpty())
			ctrl.MouseMove(image.Pt(50, 25))
			want, err := viewport.PixelToWorld(50, 25, canvas, initial)
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.Status().Mouse).To(Equal(viewport.FormatPoint[float64](f64, want)))

			m, ok := ctrl.Mouse()
			Expect(ok).To(BeTrue())
			Expect(m).To(Equal(want))
		})

		It("reprojects the mouse through every committed viewport", func() {
			p := image.Pt(10, 10)
			ctrl.MouseMove(p)
			before, _ := ctrl.Mouse()

			Expect(ctrl.Pan(image.Pt(50, 0))).To(Succeed())
			want, err := viewport.PixelToWorld(p.X, p.Y, canvas, ctrl.Viewport())
			Expect(err).NotTo(HaveOccurred())
			m, ok := ctrl.Mouse()
			Expect(ok).To(BeTrue())
			Expect(m).To(Equal(want))
			Expect(m).NotTo(Equal(before))
			Expect(ctrl.Status().Mouse).To(Equal(viewport.FormatPoint[float64](f64, want)))

			Expect(ctrl.Revert()).To(Succeed())
			m, _ = ctrl.Mouse()
			Expect(m).To(Equal(before))

			Expect(ctrl.Resize(viewport.Canvas{Width: 20, Height: 20})).To(Succeed())
			want, err = viewport.PixelToWorld(p.X, p.Y, viewport.Canvas{Width: 20, Height: 20}, initial)
			Expect(err).NotTo(HaveOccurred())
			m, _ = ctrl.Mouse()
			Expect(m).To(Equal(want))
		})

		It("shows center and corners after each commit", func() {
			Expect(ctrl.Zoom(0.5, canvas.Center())).To(Succeed())
			s := ctrl.Status()
			Expect(s.Center).To(Equal("(-0.5, 0)"))
			Expect(s.Min).To(Equal("(-1.5, -0.5)"))
			Expect(s.Max).To(Equal("(0.5, 0.5)"))
			Expect(s.Depth).To(Equal(2))
			Expect(s.Precision).To(Equal("float64"))
		})

		It("exposes editable fields that round-trip", func() {
			fields := ctrl.Fields()
			Expect(fields.CenterHex).To(HaveLen(32))
			Expect(fields.SpanX).To(Equal("2"))
			Expect(fields.SpanY).To(Equal("1"))
		})
	})

	Describe("frames", func() {
		It("drops frames older than the stored one", func() {
			Expect(ctrl.FrameReady(testFrame(5))).To(BeTrue())
			Expect(ctrl.FrameReady(testFrame(3))).To(BeFalse())
			Expect(ctrl.Frame().Seq).To(Equal(uint64(5)))
			Expect(ctrl.FrameReady(nil)).To(BeFalse())
		})

		It("issues increasing tickets even when reverting", func() {
			Expect(ctrl.Zoom(0.5, canvas.Center())).To(Succeed())
			first := painter.Last().Seq
			Expect(ctrl.Revert()).To(Succeed())
			Expect(painter.Last().Seq).To(BeNumerically(">", first))
			Expect(painter.Last().Entry).To(Equal(uint64(1)))

			Expect(ctrl.FrameReady(testFrame(painter.Last().Seq))).To(BeTrue())
			Expect(ctrl.Current()).To(BeTrue())
		})
	})

	Describe("repaint tickets", func() {
		It("issues a ticket without repainting for synchronous renders", func() {
			ctrl.Repaint()
			Expect(ctrl.FrameReady(testFrame(painter.Last().Seq))).To(BeTrue())

			Expect(ctrl.Zoom(0.5, canvas.Center())).To(Succeed())
			count := painter.Count()
			req := ctrl.Request()
			Expect(painter.Count()).To(Equal(count))
			Expect(req.Seq).To(BeNumerically(">", painter.Last().Seq))
			Expect(req.Viewport.Equal(ctrl.Viewport())).To(BeTrue())

			Expect(ctrl.FrameReady(testFrame(req.Seq))).To(BeTrue())
			Expect(ctrl.Current()).To(BeTrue())
			Expect(ctrl.FrameReady(testFrame(painter.Last().Seq))).To(BeFalse())
		})

		It("hands repaints to the renderer in ticket order", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					for j := 0; j < 25; j++ {
						if (i+j)%2 == 0 {
							Expect(ctrl.Pan(image.Pt(1, 0))).To(Succeed())
						} else {
							ctrl.Repaint()
						}
					}
				}(i)
			}
			wg.Wait()

			seqs := painter.Seqs()
			Expect(seqs).NotTo(BeEmpty())
			for i := 1; i < len(seqs); i++ {
				Expect(seqs[i]).To(BeNumerically(">", seqs[i-1]))
			}
			Expect(ctrl.Request().Seq).To(Equal(seqs[len(seqs)-1] + 1))
		})
	})

	Describe("ExportFrame", func() {
		It("reports unsupported with the default exporter, frame or not", func() {
			Expect(ctrl.CanExportFrame()).To(BeFalse())
			_, err := ctrl.ExportFrame("")
			Expect(err).To(MatchError(export.ErrExportUnsupported))
			Expect(errors.Is(err, export.ErrExportIOFailure)).To(BeFalse())

			ctrl.FrameReady(testFrame(1))
			_, err = ctrl.ExportFrame("")
			Expect(err).To(MatchError(export.ErrExportUnsupported))
			Expect(ctrl.Notice()).To(ContainSubstring("no custom frame exporter was supplied"))
		})

		Context("with a custom exporter", func() {
			var got []export.Request

			BeforeEach(func() {
				got = nil
				opts.Exporter = export.Custom(func(req export.Request) error {
					got = append(got, req)
					return nil
				}, ".raw")
			})

			It("needs a computed frame", func() {
				Expect(ctrl.CanExportFrame()).To(BeTrue())
				_, err := ctrl.ExportFrame("")
				Expect(err).To(MatchError(export.ErrNoDataToExport))
				Expect(got).To(BeEmpty())
			})

			It("passes the frame and viewport description to the handler", func() {
				ctrl.FrameReady(testFrame(2))
				path, err := ctrl.ExportFrame("")
				Expect(err).NotTo(HaveOccurred())
				Expect(path).To(HaveSuffix("fraczoom-2.raw"))
				Expect(got).To(HaveLen(1))
				Expect(got[0].Meta.CenterHex).To(Equal(ctrl.Fields().CenterHex))
				Expect(got[0].Meta.Center).To(HaveLen(16))
				Expect(got[0].Meta.Precision).To(Equal("float64"))
				Expect(got[0].Frame.Uint16At(1, 2)).To(Equal(uint16(42)))
			})
		})

		Context("with a failing exporter", func() {
			BeforeEach(func() {
				opts.Exporter = export.Custom(func(export.Request) error { return errors.New("quota exceeded") })
			})

			It("reports an i/o failure with the detail", func() {
				ctrl.FrameReady(testFrame(1))
				_, err := ctrl.ExportFrame("x.bin")
				Expect(err).To(MatchError(export.ErrExportIOFailure))
				Expect(err.Error()).To(ContainSubstring("quota exceeded"))
				Expect(ctrl.Viewport().Equal(initial)).To(BeTrue())
			})
		})
	})

	Describe("SaveImage", func() {
		It("needs a computed frame", func() {
			Expect(ctrl.CanSaveImage()).To(BeFalse())
			_, err := ctrl.SaveImage("")
			Expect(err).To(MatchError(export.ErrNoDataToExport))
		})

		It("writes the raster to the export directory", func() {
			ctrl.FrameReady(testFrame(4))
			path, err := ctrl.SaveImage("")
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(opts.ExportDir, "fraczoom-4.png")))
			_, statErr := os.Stat(path)
			Expect(statErr).NotTo(HaveOccurred())
			Expect(ctrl.Notice()).To(ContainSubstring(path))
		})

		It("reports encoder problems as i/o failures", func() {
			ctrl.FrameReady(testFrame(4))
			_, err := ctrl.SaveImage(filepath.Join(opts.ExportDir, "out.xyz"))
			Expect(err).To(MatchError(export.ErrExportIOFailure))
		})
	})

	Describe("Journal", func() {
		It("restores a journaled history", func() {
			Expect(ctrl.Zoom(0.5, image.Pt(10, 10))).To(Succeed())
			Expect(ctrl.Pan(image.Pt(-4, 9))).To(Succeed())
			rows := ctrl.Journal()
			Expect(rows).To(HaveLen(3))
			want := ctrl.Entries()

			other, err := nav.New(view64(0, 0, 1, 1), canvas, painter, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Restore(rows)).To(Succeed())

			restored := other.Entries()
			Expect(restored).To(HaveLen(3))
			for i := range want {
				Expect(restored[i].Viewport.Equal(want[i].Viewport)).To(BeTrue())
			}
			Expect(other.Revert()).To(Succeed())
		})

		It("rejects the whole journal when one row is bad", func() {
			Expect(ctrl.Zoom(0.5, image.Pt(10, 10))).To(Succeed())
			rows := ctrl.Journal()
			rows = append(rows, nav.JournalEntry{CenterHex: "00", HalfSpanX: "1", HalfSpanY: "1"})

			err := ctrl.Restore(rows)
			var restoreErr *nav.RestoreError
			Expect(errors.As(err, &restoreErr)).To(BeTrue())
			Expect(restoreErr.Row).To(Equal(2))
			Expect(err).To(MatchError(codec.ErrLengthMismatch))
			Expect(ctrl.Depth()).To(Equal(2))

			Expect(ctrl.Restore(nil)).To(MatchError(nav.ErrEmptyJournal))
		})
	})
})

var _ = Describe("Controller with big.Float coordinates", func() {
	var (
		num    precision.BigFloat
		canvas viewport.Canvas
		ctrl   *nav.Controller[*big.Float]
	)

	BeforeEach(func() {
		num = precision.NewBigFloat(256)
		canvas = viewport.Canvas{Width: 320, Height: 240}
		initial, err := viewport.FromCenterSpan[*big.Float](num,
			viewport.Point[*big.Float]{X: num.FromFloat64(-0.75), Y: num.FromFloat64(0.1)},
			viewport.Point[*big.Float]{X: num.FromFloat64(1.5), Y: num.FromFloat64(1.125)})
		Expect(err).NotTo(HaveOccurred())
		ctrl, err = nav.New(initial, canvas, nil, nav.Options{Logger: logging.Discard()})
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps zooming past float64 resolution", func() {
		anchor := image.Pt(97, 181)
		for i := 0; i < 120; i++ {
			Expect(ctrl.Zoom(0.5, anchor)).To(Succeed())
		}
		v := ctrl.Viewport()
		Expect(num.Float64(v.HalfSpan().X)).To(BeNumerically(">", 0))

		min, max := v.Corners()
		Expect(min.X.Cmp(max.X)).To(Equal(-1))
		Expect(min.Y.Cmp(max.Y)).To(Equal(-1))

		// adjacent pixels still map to distinct world points
		a, err := viewport.PixelToWorld(10, 10, canvas, v)
		Expect(err).NotTo(HaveOccurred())
		b, err := viewport.PixelToWorld(11, 10, canvas, v)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.X.Cmp(b.X)).To(Equal(-1))
	})

	It("round-trips its center through the text fields", func() {
		Expect(ctrl.Zoom(0.001, image.Pt(1, 2))).To(Succeed())
		before := ctrl.Viewport()
		fields := ctrl.Fields()
		Expect(fields.CenterHex).To(HaveLen(2 * 2 * num.Width()))

		Expect(ctrl.Revert()).To(Succeed())
		Expect(ctrl.CommitText(fields.CenterHex, fields.SpanX, fields.SpanY)).To(Succeed())
		Expect(ctrl.Viewport().Center().X.Cmp(before.Center().X)).To(BeZero())
		Expect(ctrl.Viewport().Center().Y.Cmp(before.Center().Y)).To(BeZero())
	})

	It("rejects a float64-width center", func() {
		err := ctrl.CommitText(hex64(0, 0), "1", "1")
		Expect(err).To(MatchError(codec.ErrLengthMismatch))
	})
})
