package export

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/fraczoom/internal/frame"
)

// Block tags used by the binfile writer.
const (
	TagMeta       int64 = 1
	TagCenter     int64 = 2
	TagSpan       int64 = 3
	TagData       int64 = 4
	TagDataZstd   int64 = 5
	headerSize          = 32
	blockHeadSize       = 16
)

var binfileMagic = [16]byte{'A', 'r', 'm', 'a', 'g', 'e', 'd', 'd', 'o', 'n', 6, 6, 6, 42, 30, 0}

// ErrMalformedBinfile is returned by ReadBinfile for truncated or foreign input.
var ErrMalformedBinfile = errors.New("export: malformed binfile")

// Block is one tagged payload. Unknown tags are preserved on read.
type Block struct {
	Tag  int64
	Data []byte
}

// WriteBlocks writes the 32-byte header followed by each block as
// [tag int64 LE][len uint64 LE][payload].
func WriteBlocks(w io.Writer, blocks []Block) error {
	var header [headerSize]byte
	copy(header[:], binfileMagic[:])
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	var head [blockHeadSize]byte
	for _, b := range blocks {
		binary.LittleEndian.PutUint64(head[0:8], uint64(b.Tag))
		binary.LittleEndian.PutUint64(head[8:16], uint64(len(b.Data)))
		if _, err := w.Write(head[:]); err != nil {
			return err
		}
		if _, err := w.Write(b.Data); err != nil {
			return err
		}
	}
	return nil
}

func ReadBlocks(r io.Reader) ([]Block, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedBinfile, err)
	}
	if !bytes.Equal(header[:len(binfileMagic)], binfileMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedBinfile)
	}

	var blocks []Block
	var head [blockHeadSize]byte
	for {
		_, err := io.ReadFull(r, head[:])
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: block %d header: %v", ErrMalformedBinfile, len(blocks), err)
		}
		tag := int64(binary.LittleEndian.Uint64(head[0:8]))
		n := binary.LittleEndian.Uint64(head[8:16])

		var buf bytes.Buffer
		copied, err := io.CopyN(&buf, r, int64(n))
		if err != nil || uint64(copied) != n {
			return nil, fmt.Errorf("%w: block %d (tag %d) truncated at %d of %d bytes", ErrMalformedBinfile, len(blocks), tag, copied, n)
		}
		blocks = append(blocks, Block{Tag: tag, Data: buf.Bytes()})
	}
}

// Binfile is the decoded content of a frame written by BinfileHandler.
type Binfile struct {
	Rows, Cols   int
	ElementBytes int
	Precision    string
	Center       []byte
	HalfSpanX    string
	HalfSpanY    string
	Compressed   bool
	Data         []byte
	Extra        []Block
}

// BinfileHandler returns a Handler writing the tagged block format. With
// compress set, the frame data is stored zstd-compressed under TagDataZstd.
func BinfileHandler(compress bool) Handler {
	return func(req Request) error {
		return WriteBinfile(req.Path, req, compress)
	}
}

func WriteBinfile(path string, req Request, compress bool) error {
	f := req.Frame
	if f == nil || len(f.Data) == 0 {
		return ErrNoDataToExport
	}

	meta := make([]byte, 24)
	binary.LittleEndian.PutUint64(meta[0:8], uint64(f.Rows))
	binary.LittleEndian.PutUint64(meta[8:16], uint64(f.Cols))
	binary.LittleEndian.PutUint64(meta[16:24], uint64(f.ElementBytes))

	span := strings.Join([]string{req.Meta.Precision, req.Meta.HalfSpanX, req.Meta.HalfSpanY}, "\n")

	data, tag := f.Data, TagData
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return ioFailure(path, err)
		}
		data, tag = enc.EncodeAll(f.Data, nil), TagDataZstd
		enc.Close()
	}

	blocks := []Block{
		{Tag: TagMeta, Data: meta},
		{Tag: TagCenter, Data: req.Meta.Center},
		{Tag: TagSpan, Data: []byte(span)},
		{Tag: tag, Data: data},
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ioFailure(path, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return ioFailure(path, err)
	}
	w := bufio.NewWriter(file)
	if err := WriteBlocks(w, blocks); err != nil {
		file.Close()
		return ioFailure(path, err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return ioFailure(path, err)
	}
	if err := file.Close(); err != nil {
		return ioFailure(path, err)
	}
	return nil
}

// ReadBinfile parses a file written by WriteBinfile. Compressed data is
// returned decompressed.
func ReadBinfile(path string) (*Binfile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blocks, err := ReadBlocks(bufio.NewReader(file))
	if err != nil {
		return nil, err
	}

	out := &Binfile{}
	var haveMeta, haveData bool
	for _, b := range blocks {
		switch b.Tag {
		case TagMeta:
			if len(b.Data) != 24 {
				return nil, fmt.Errorf("%w: meta block is %d bytes", ErrMalformedBinfile, len(b.Data))
			}
			out.Rows = int(binary.LittleEndian.Uint64(b.Data[0:8]))
			out.Cols = int(binary.LittleEndian.Uint64(b.Data[8:16]))
			out.ElementBytes = int(binary.LittleEndian.Uint64(b.Data[16:24]))
			haveMeta = true
		case TagCenter:
			out.Center = b.Data
		case TagSpan:
			parts := strings.SplitN(string(b.Data), "\n", 3)
			if len(parts) != 3 {
				return nil, fmt.Errorf("%w: span block has %d fields", ErrMalformedBinfile, len(parts))
			}
			out.Precision, out.HalfSpanX, out.HalfSpanY = parts[0], parts[1], parts[2]
		case TagData:
			out.Data = b.Data
			haveData = true
		case TagDataZstd:
			dec, err := zstd.NewReader(nil)
			if err != nil {
				return nil, err
			}
			out.Data, err = dec.DecodeAll(b.Data, nil)
			dec.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedBinfile, err)
			}
			out.Compressed = true
			haveData = true
		default:
			out.Extra = append(out.Extra, b)
		}
	}

	if !haveMeta || !haveData {
		return nil, fmt.Errorf("%w: missing meta or data block", ErrMalformedBinfile)
	}
	if want := out.Rows * out.Cols * out.ElementBytes; len(out.Data) != want {
		return nil, fmt.Errorf("%w: data is %d bytes, meta says %d", ErrMalformedBinfile, len(out.Data), want)
	}
	return out, nil
}

// Frame rebuilds a frame without a raster from the decoded data.
func (b *Binfile) Frame() *frame.Frame {
	return &frame.Frame{Rows: b.Rows, Cols: b.Cols, ElementBytes: b.ElementBytes, Data: b.Data}
}
