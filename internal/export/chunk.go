package export

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/prometheus/prometheus/tsdb/chunkenc"
)

var (
	ErrInvalidChecksum     = errors.New("checksum mismatch: data is corrupted")
	ErrTooSmall            = errors.New("frame too small to be a valid chunk")
	ErrUnsupportedEncoding = errors.New("unsupported chunk encoding")
	ErrTooManySamples      = errors.New("trajectory too long for one chunk")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeTrajectory packs one price series into an XOR chunk. Sample
// timestamps are day indices starting at 0.
func EncodeTrajectory(prices []float64) (chunkenc.Chunk, error) {
	// the XOR chunk header stores the sample count in 16 bits
	if len(prices) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d samples", ErrTooManySamples, len(prices))
	}
	c := chunkenc.NewXORChunk()
	app, err := c.Appender()
	if err != nil {
		return nil, fmt.Errorf("chunk appender: %w", err)
	}
	for day, v := range prices {
		app.Append(int64(day), v)
	}
	return c, nil
}

// DecodeTrajectory reads every sample of a chunk back into a slice.
func DecodeTrajectory(c chunkenc.Chunk) ([]float64, error) {
	prices := make([]float64, 0, c.NumSamples())
	it := c.Iterator(nil)
	for it.Next() != chunkenc.ValNone {
		_, v := it.At()
		prices = append(prices, v)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk: %w", err)
	}
	return prices, nil
}

// WrapChunk lays out a chunk as [encoding][bytes][crc32c].
func WrapChunk(c chunkenc.Chunk) []byte {
	raw := c.Bytes()

	res := make([]byte, 1+len(raw)+4)
	res[0] = byte(c.Encoding())
	copy(res[1:], raw)

	checksum := crc32.Checksum(res[:1+len(raw)], castagnoli)
	binary.BigEndian.PutUint32(res[1+len(raw):], checksum)

	return res
}

// UnwrapChunk verifies the checksum of a WrapChunk frame and returns the
// chunk it carries.
func UnwrapChunk(data []byte) (chunkenc.Chunk, error) {
	if len(data) < 5 {
		return nil, ErrTooSmall
	}

	payload := data[:len(data)-4]
	want := binary.BigEndian.Uint32(data[len(data)-4:])
	if got := crc32.Checksum(payload, castagnoli); got != want {
		return nil, ErrInvalidChecksum
	}

	encoding := chunkenc.Encoding(payload[0])
	if encoding != chunkenc.EncXOR {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, encoding)
	}

	// payload is copied so the chunk does not alias the caller's buffer
	c := chunkenc.NewXORChunk()
	c.Reset(append([]byte(nil), payload[1:]...))
	return c, nil
}
