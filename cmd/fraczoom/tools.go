package main

import (
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fraczoom/internal/automation"
	"github.com/san-kum/fraczoom/internal/codec"
	"github.com/san-kum/fraczoom/internal/config"
	"github.com/san-kum/fraczoom/internal/export"
	"github.com/san-kum/fraczoom/internal/precision"
	"github.com/san-kum/fraczoom/internal/storage"
	"github.com/san-kum/fraczoom/internal/viewport"
)

func inspectBinfile(cmd *cobra.Command, args []string) error {
	bf, err := export.ReadBinfile(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "file\t%s\n", args[0])
	fmt.Fprintf(w, "size\t%d x %d, %d bytes per element\n", bf.Cols, bf.Rows, bf.ElementBytes)
	fmt.Fprintf(w, "precision\t%s\n", bf.Precision)
	fmt.Fprintf(w, "center\t%x\n", bf.Center)
	fmt.Fprintf(w, "half span\t(%s, %s)\n", bf.HalfSpanX, bf.HalfSpanY)
	fmt.Fprintf(w, "compressed\t%v\n", bf.Compressed)
	fmt.Fprintf(w, "data\t%d bytes\n", len(bf.Data))
	if len(bf.Extra) > 0 {
		fmt.Fprintf(w, "unknown blocks\t%d\n", len(bf.Extra))
	}
	return w.Flush()
}

func encodeCenter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var text string
	if cfg.Precision.Kind == "bigfloat" {
		text, err = encodeWith[*big.Float](precision.NewBigFloat(cfg.Precision.Bits), args[0], args[1])
	} else {
		text, err = encodeWith[float64](precision.Float64{}, args[0], args[1])
	}
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func decodeCenter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var text string
	if cfg.Precision.Kind == "bigfloat" {
		text, err = decodeWith[*big.Float](precision.NewBigFloat(cfg.Precision.Bits), args[0])
	} else {
		text, err = decodeWith[float64](precision.Float64{}, args[0])
	}
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func encodeWith[T any](num precision.Number[T], xs, ys string) (string, error) {
	x, err := num.Parse(xs)
	if err != nil {
		return "", fmt.Errorf("x: %w", err)
	}
	y, err := num.Parse(ys)
	if err != nil {
		return "", fmt.Errorf("y: %w", err)
	}
	c := codec.New[viewport.Point[T]](viewport.CenterBinary[T]{Num: num})
	return c.Encode(viewport.Point[T]{X: x, Y: y}), nil
}

func decodeWith[T any](num precision.Number[T], text string) (string, error) {
	c := codec.New[viewport.Point[T]](viewport.CenterBinary[T]{Num: num})
	p, err := c.Decode(text)
	if err != nil {
		return "", err
	}
	return viewport.FormatPoint(num, p), nil
}

func sessionStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(sessionDir(cfg)), nil
}

func sessionDir(cfg *config.Config) string {
	return filepath.Join(cfg.Export.Dir, "sessions")
}

func listSessions(cmd *cobra.Command, args []string) error {
	st, err := sessionStore(cmd)
	if err != nil {
		return err
	}
	sessions, err := st.List()
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPRECISION\tCANVAS\tDEPTH\tHALF SPAN X")

	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%s\n",
			s.ID,
			s.Timestamp.Format("2006-01-02 15:04:05"),
			s.Precision,
			s.Width, s.Height,
			s.Depth,
			s.HalfSpanX,
		)
	}

	return w.Flush()
}

func plotSession(cmd *cobra.Command, args []string) error {
	st, err := sessionStore(cmd)
	if err != nil {
		return err
	}
	id := args[0]
	if id == "latest" {
		if id, err = st.Latest(); err != nil {
			return err
		}
	}
	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	rows, err := st.LoadHistory(id)
	if err != nil {
		return err
	}

	data := make([]float64, len(rows))
	for i, r := range rows {
		v, err := log10Text(r.HalfSpanX)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		data[i] = v
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}

	fmt.Printf("session: %s\n", meta.ID)
	fmt.Printf("precision: %s\n", meta.Precision)
	fmt.Printf("steps: %d\n\n", len(rows))

	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(60),
		asciigraph.Caption("log10 half span x per history step"),
	)
	fmt.Println(graph)
	return nil
}

// log10Text takes the decimal logarithm of a decimal string without
// converting to float64, so spans below 1e-308 still plot.
func log10Text(s string) (float64, error) {
	f, _, err := big.ParseFloat(s, 10, 64, big.ToNearestEven)
	if err != nil {
		return 0, err
	}
	if f.Sign() <= 0 {
		return 0, fmt.Errorf("span %s is not positive", s)
	}
	mant := new(big.Float)
	exp := f.MantExp(mant)
	m, _ := mant.Float64()
	return (math.Log2(m) + float64(exp)) * math.Log10(2), nil
}

func runTour(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	s, _, closeFn, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := automation.RunScenario(cmd.Context(), sc, s, s.Logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tOP\tDEPTH\tCENTER\tFILES")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%v\n", r.Step, r.Op, r.Depth, r.Center, r.Files)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func runDive(cmd *cobra.Command, args []string) error {
	s, _, closeFn, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	c := s.Nav.Canvas()
	anchor := c.Center()
	if diveX >= 0 {
		anchor.X = diveX
	}
	if diveY >= 0 {
		anchor.Y = diveY
	}
	dir := outPath
	if dir == "" {
		dir = filepath.Join(s.Config.Export.Dir, "dive")
	}

	results, err := automation.RunDive(cmd.Context(), &automation.Dive{
		Steps:  diveSteps,
		Factor: diveFactor,
		Anchor: anchor,
		Dir:    dir,
	}, s, s.Logger)
	if err != nil {
		return err
	}
	last := results[len(results)-1]
	fmt.Printf("wrote %d frames to %s, final half span %s\n", len(results), dir, last.HalfSpan)
	return nil
}
