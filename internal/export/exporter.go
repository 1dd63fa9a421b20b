// Package export persists computed frames: rendered rasters through
// SaveImage and raw frame data through a FrameExporter.
package export

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/san-kum/fraczoom/internal/frame"
)

// Meta describes the viewport a frame was computed for, already reduced to
// text and bytes so handlers need not know the precision type.
type Meta struct {
	Precision string
	CenterHex string
	Center    []byte
	HalfSpanX string
	HalfSpanY string
}

type Request struct {
	Path  string
	Frame *frame.Frame
	Meta  Meta
}

// Handler writes one frame in an implementation-specific format.
type Handler func(Request) error

type Kind int

const (
	KindDefault Kind = iota
	KindCustom
)

func (k Kind) String() string {
	if k == KindCustom {
		return "custom"
	}
	return "default"
}

// FrameExporter is either Default, which always reports
// ErrExportUnsupported, or Custom, which dispatches to a handler.
type FrameExporter struct {
	kind       Kind
	handler    Handler
	extensions []string
}

// Default is the exporter used when no custom format was supplied.
func Default() FrameExporter {
	return FrameExporter{kind: KindDefault}
}

// Custom wraps h. Extensions (".bin", ...) are offered to file dialogs.
func Custom(h Handler, extensions ...string) FrameExporter {
	if h == nil {
		return Default()
	}
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return FrameExporter{kind: KindCustom, handler: h, extensions: exts}
}

func (x FrameExporter) Kind() Kind { return x.kind }

func (x FrameExporter) Supported() bool { return x.kind == KindCustom }

func (x FrameExporter) Extensions() []string { return slices.Clone(x.extensions) }

// DefaultPath picks a file name in dir with the exporter's first extension.
func (x FrameExporter) DefaultPath(dir, stem string) string {
	ext := ".bin"
	if len(x.extensions) > 0 {
		ext = x.extensions[0]
	}
	return filepath.Join(dir, stem+ext)
}

// Export runs the handler. Errors the handler returns untyped are wrapped
// into *IOError so callers can rely on the taxonomy.
func (x FrameExporter) Export(req Request) error {
	if x.kind != KindCustom {
		return &UnsupportedError{}
	}
	if req.Frame == nil || len(req.Frame.Data) == 0 {
		return ErrNoDataToExport
	}
	err := x.handler(req)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrExportIOFailure) || errors.Is(err, ErrNoDataToExport) || errors.Is(err, ErrExportUnsupported) {
		return err
	}
	return ioFailure(req.Path, err)
}
