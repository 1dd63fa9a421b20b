// Package server exposes the terminal explorer over SSH: every PTY session
// gets its own navigation session and Bubble Tea program.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gliderlabs/ssh"
	"github.com/muesli/termenv"

	"github.com/san-kum/fraczoom/internal/app"
	"github.com/san-kum/fraczoom/internal/config"
	"github.com/san-kum/fraczoom/internal/metrics"
	"github.com/san-kum/fraczoom/internal/viz"
)

// SSHServer serves one explorer per connection.
type SSHServer struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	theme   string
	active  atomic.Int64
}

func NewSSHServer(cfg *config.Config, theme string, logger *slog.Logger, rec *metrics.Recorder) *SSHServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSHServer{cfg: cfg, logger: logger, metrics: rec, theme: theme}
}

// Active is the number of connected sessions.
func (s *SSHServer) Active() int64 { return s.active.Load() }

// ListenAndServe listens on the configured address until ctx is done.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *SSHServer) Serve(ctx context.Context, ln net.Listener) error {
	server := &ssh.Server{Handler: s.handleSession}

	if key := s.cfg.Server.HostKey; key != "" {
		if _, err := os.Stat(key); err == nil {
			if err := server.SetOption(ssh.HostKeyFile(key)); err != nil {
				return fmt.Errorf("set host key: %w", err)
			}
		} else {
			s.logger.Warn("host key not found, using an ephemeral key", "path", key)
		}
	}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	s.logger.Info("ssh server listening", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *SSHServer) handleSession(sess ssh.Session) {
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintln(sess, "fraczoom needs a terminal; connect with ssh -t")
		sess.Exit(1)
		return
	}

	user := sess.User()
	if user == "" {
		user = "anonymous"
	}
	logger := s.logger.With("user", user, "remote", sess.RemoteAddr().String())

	session, err := app.New(s.cfg, app.Options{Logger: logger, Metrics: s.metrics})
	if err != nil {
		logger.Error("session setup failed", "error", err)
		fmt.Fprintf(sess, "session setup failed: %v\n", err)
		sess.Exit(1)
		return
	}
	defer session.Close()

	s.active.Add(1)
	s.metrics.Operation("ssh_session")
	logger.Info("client connected", "term", ptyReq.Term, "cols", ptyReq.Window.Width, "rows", ptyReq.Window.Height)
	defer func() {
		s.active.Add(-1)
		logger.Info("client disconnected")
	}()

	r := lipgloss.NewRenderer(sess, termenv.WithUnsafe())
	r.SetColorProfile(profileFor(ptyReq.Term, sess.Environ()))

	p := viz.NewProgram(session, viz.Options{Theme: s.theme, Renderer: r},
		tea.WithInput(sess), tea.WithOutput(sess), tea.WithContext(sess.Context()))
	defer session.OnFrame(nil)

	go func() {
		p.Send(tea.WindowSizeMsg{Width: ptyReq.Window.Width, Height: ptyReq.Window.Height})
		for win := range winCh {
			p.Send(tea.WindowSizeMsg{Width: win.Width, Height: win.Height})
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Warn("program exited", "error", err)
	}
}

// profileFor picks a colour profile from the client's TERM and COLORTERM.
func profileFor(term string, environ []string) termenv.Profile {
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, "COLORTERM="); ok && (v == "truecolor" || v == "24bit") {
			return termenv.TrueColor
		}
	}
	switch {
	case term == "" || term == "dumb":
		return termenv.Ascii
	case strings.Contains(term, "256color"):
		return termenv.ANSI256
	}
	return termenv.ANSI
}
