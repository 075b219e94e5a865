package export

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"

	"mcsim/internal/gbm"
)

// DefaultLimit matches the number of traces a chart renderer draws.
const DefaultLimit = 100

// maxFrame bounds a single frame so a corrupt length prefix cannot trigger a
// huge allocation.
const maxFrame = 64 << 20

// Writer emits length-prefixed chunk frames and hashes everything it writes.
type Writer struct {
	w      io.Writer
	digest hash.Hash
	count  int
}

func NewWriter(w io.Writer) *Writer {
	d := sha256.New()
	return &Writer{w: io.MultiWriter(w, d), digest: d}
}

func (w *Writer) WriteTrajectory(prices []float64) error {
	c, err := EncodeTrajectory(prices)
	if err != nil {
		return err
	}
	frame := WrapChunk(c)

	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(frame)))
	if _, err := w.w.Write(size[:]); err != nil {
		return fmt.Errorf("write frame size: %w", err)
	}
	if _, err := w.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	w.count++
	return nil
}

// Count is the number of trajectories written.
func (w *Writer) Count() int {
	return w.count
}

// Digest is the hex sha256 of the bytes written so far.
func (w *Writer) Digest() string {
	return hex.EncodeToString(w.digest.Sum(nil))
}

// WritePaths writes the first limit trajectories of m and returns the
// stream digest.
func WritePaths(out io.Writer, m *gbm.PathMatrix, limit int) (string, int, error) {
	w := NewWriter(out)
	for i, prices := range m.Trajectories(limit) {
		if err := w.WriteTrajectory(prices); err != nil {
			return "", w.Count(), fmt.Errorf("trajectory %d: %w", i, err)
		}
	}
	return w.Digest(), w.Count(), nil
}

// Reader decodes a stream produced by Writer.
type Reader struct {
	r      io.Reader
	digest hash.Hash
	count  int
}

func NewReader(r io.Reader) *Reader {
	d := sha256.New()
	return &Reader{r: io.TeeReader(r, d), digest: d}
}

// Next returns the next trajectory, or io.EOF at a clean end of stream.
func (r *Reader) Next() ([]float64, error) {
	var size [4]byte
	if _, err := io.ReadFull(r.r, size[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame size: %w", err)
	}

	n := binary.BigEndian.Uint32(size[:])
	if n < 5 {
		return nil, ErrTooSmall
	}
	if n > maxFrame {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", n)
	}

	frame := make([]byte, n)
	if _, err := io.ReadFull(r.r, frame); err != nil {
		return nil, fmt.Errorf("read frame %d: %w", r.count, err)
	}

	c, err := UnwrapChunk(frame)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", r.count, err)
	}
	prices, err := DecodeTrajectory(c)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", r.count, err)
	}
	r.count++
	return prices, nil
}

// ReadAll drains the stream.
func (r *Reader) ReadAll() ([][]float64, error) {
	var out [][]float64
	for {
		prices, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, prices)
	}
}

func (r *Reader) Digest() string {
	return hex.EncodeToString(r.digest.Sum(nil))
}
