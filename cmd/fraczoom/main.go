package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/fraczoom/internal/app"
	"github.com/san-kum/fraczoom/internal/config"
	"github.com/san-kum/fraczoom/internal/gui"
	"github.com/san-kum/fraczoom/internal/logging"
	"github.com/san-kum/fraczoom/internal/metrics"
	"github.com/san-kum/fraczoom/internal/server"
	"github.com/san-kum/fraczoom/internal/viz"
)

var (
	configFile string
	preset     string
	// precision
	precisionKind string
	bits          uint
	// canvas
	width   int
	height  int
	maxIter int
	// output
	outPath  string
	compress bool
	// front ends
	theme       string
	resume      string
	addr        string
	metricsAddr string
	// dive
	diveSteps  int
	diveFactor float64
	diveX      int
	diveY      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fraczoom",
		Short: "arbitrary-precision fractal explorer",
		RunE:  runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start at a preset location")
	pf.StringVar(&precisionKind, "precision", "", "coordinate precision: float64 or bigfloat")
	pf.UintVar(&bits, "bits", 0, "mantissa bits for bigfloat")
	pf.IntVar(&width, "width", 0, "canvas width in pixels")
	pf.IntVar(&height, "height", 0, "canvas height in pixels")
	pf.IntVar(&maxIter, "iter", 0, "iteration limit")
	rootCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme")
	rootCmd.Flags().StringVar(&resume, "resume", "", "resume a saved session (id or latest)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "explore in the terminal",
		RunE:  runTUI,
	}
	tuiCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme")
	tuiCmd.Flags().StringVar(&resume, "resume", "", "resume a saved session (id or latest)")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "explore in a desktop window",
		RunE:  runGUI,
	}
	guiCmd.Flags().StringVar(&resume, "resume", "", "resume a saved session (id or latest)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the terminal explorer over ssh",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "ssh listen address")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics", "", "prometheus listen address")
	serveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render the configured view to an image",
		RunE:  renderImage,
	}
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "image path (.png .jpg .gif .bmp .tiff)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "render the configured view to a binfile",
		RunE:  exportFrame,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "binfile path")
	exportCmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the data block")

	inspectCmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "show the metadata of a binfile",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectBinfile,
	}

	encodeCmd := &cobra.Command{
		Use:   "encode [x] [y]",
		Short: "encode a decimal centre as hex",
		Args:  cobra.ExactArgs(2),
		RunE:  encodeCenter,
	}

	decodeCmd := &cobra.Command{
		Use:   "decode [hex]",
		Short: "decode a hex centre",
		Args:  cobra.ExactArgs(1),
		RunE:  decodeCenter,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset locations",
		RunE:  listPresets,
	}

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list saved sessions",
		RunE:  listSessions,
	}
	plotCmd := &cobra.Command{
		Use:   "plot [id]",
		Short: "plot the zoom depth of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSession,
	}
	sessionsCmd.AddCommand(plotCmd)

	tourCmd := &cobra.Command{
		Use:   "tour [scenario.yaml]",
		Short: "replay a scripted navigation tour",
		Args:  cobra.ExactArgs(1),
		RunE:  runTour,
	}

	diveCmd := &cobra.Command{
		Use:   "dive",
		Short: "zoom repeatedly and save a frame per step",
		RunE:  runDive,
	}
	diveCmd.Flags().IntVar(&diveSteps, "steps", 30, "number of zoom steps")
	diveCmd.Flags().Float64Var(&diveFactor, "factor", 0.8, "zoom factor per step")
	diveCmd.Flags().IntVar(&diveX, "x", -1, "anchor pixel x (canvas centre when negative)")
	diveCmd.Flags().IntVar(&diveY, "y", -1, "anchor pixel y (canvas centre when negative)")
	diveCmd.Flags().StringVarP(&outPath, "out", "o", "", "output directory")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(tuiCmd, guiCmd, serveCmd, renderCmd, exportCmd, inspectCmd,
		encodeCmd, decodeCmd, presetsCmd, sessionsCmd, tourCmd, diveCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers flags and the preset over the loaded configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("precision") {
		cfg.Precision.Kind = precisionKind
	}
	if flags.Changed("bits") {
		cfg.Precision.Bits = bits
	}
	if flags.Changed("width") {
		cfg.Canvas.Width = width
	}
	if flags.Changed("height") {
		cfg.Canvas.Height = height
	}
	if preset != "" {
		if err := cfg.Apply(preset); err != nil {
			return nil, err
		}
	}
	if flags.Changed("iter") {
		cfg.Render.MaxIter = maxIter
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging sends records to the configured file. Front ends that own
// the terminal get a silent logger when no file is set.
func setupLogging(cfg *config.Config, ownsTerminal bool) (*slog.Logger, func(), error) {
	var w io.Writer
	closeFn := func() {}
	switch {
	case cfg.Log.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w, closeFn = f, func() { f.Close() }
	case ownsTerminal:
		w = io.Discard
	}
	return logging.Setup(cfg.Log.Level, cfg.Log.Format, w), closeFn, nil
}

func openSession(cmd *cobra.Command, ownsTerminal bool) (*app.Session, *metrics.Recorder, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closeLog, err := setupLogging(cfg, ownsTerminal)
	if err != nil {
		return nil, nil, nil, err
	}
	rec := metrics.NewRecorder()
	s, err := app.New(cfg, app.Options{Logger: logger, Metrics: rec})
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	if resume != "" {
		if err := s.ResumeSession(resume); err != nil {
			s.Close()
			closeLog()
			return nil, nil, nil, err
		}
	}
	return s, rec, func() { s.Close(); closeLog() }, nil
}

// serveMetrics exposes rec while ctx lives when an address is configured.
func serveMetrics(ctx context.Context, addr string, rec *metrics.Recorder) {
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, addr, rec); err != nil {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
}

func runTUI(cmd *cobra.Command, args []string) error {
	s, rec, closeFn, err := openSession(cmd, true)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	serveMetrics(ctx, s.Config.Metrics.Addr, rec)

	return viz.Run(s, viz.Options{Theme: theme})
}

func runGUI(cmd *cobra.Command, args []string) error {
	s, rec, closeFn, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	serveMetrics(ctx, s.Config.Metrics.Addr, rec)

	gui.Run(s)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	logger, closeLog, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.NewRecorder()
	serveMetrics(ctx, cfg.Metrics.Addr, rec)
	return server.NewSSHServer(cfg, theme, logger, rec).ListenAndServe(ctx)
}

func renderImage(cmd *cobra.Command, args []string) error {
	s, _, closeFn, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	f, err := s.RenderNow(cmd.Context())
	if err != nil {
		return err
	}
	path, err := s.Nav.SaveImage(outPath)
	if err != nil {
		return err
	}
	fmt.Printf("saved %dx%d frame to %s\n", f.Cols, f.Rows, path)
	return nil
}

func exportFrame(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("compress") {
		cfg.Export.Compress = compress
	}
	logger, closeLog, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := app.New(cfg, app.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.RenderNow(cmd.Context()); err != nil {
		return err
	}
	path, err := s.Nav.ExportFrame(outPath)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCENTER\tHALF SPAN\tITER\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		iter := "-"
		if p.MaxIter > 0 {
			iter = fmt.Sprint(p.MaxIter)
		}
		fmt.Fprintf(w, "%s\t(%s, %s)\t%s\t%s\t%s\n", name, p.CenterX, p.CenterY, p.HalfSpanX, iter, p.Description)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "fraczoom.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
