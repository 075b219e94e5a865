package export

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"mcsim/internal/gbm"
)

func simulate(t *testing.T, days, paths int) *gbm.PathMatrix {
	t.Helper()
	m, err := gbm.Simulate(gbm.NewParameters(100, 0.05, 0.2, days, paths), gbm.NewSource(11))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestWrapUnwrapChunk(t *testing.T) {
	prices := []float64{100, 101.5, 99.25, 1e-300, 102}
	c, err := EncodeTrajectory(prices)
	if err != nil {
		t.Fatal(err)
	}

	got, err := UnwrapChunk(WrapChunk(c))
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeTrajectory(got)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, decoded, prices)
}

func TestUnwrapChunkRejectsCorruption(t *testing.T) {
	c, err := EncodeTrajectory([]float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	frame := WrapChunk(c)

	flipped := bytes.Clone(frame)
	flipped[2] ^= 0xff
	if _, err := UnwrapChunk(flipped); !errors.Is(err, ErrInvalidChecksum) {
		t.Fatalf("err = %v, want ErrInvalidChecksum", err)
	}

	if _, err := UnwrapChunk(frame[:4]); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("err = %v, want ErrTooSmall", err)
	}
}

func TestEncodeTrajectoryTooLong(t *testing.T) {
	if _, err := EncodeTrajectory(make([]float64, math.MaxUint16+1)); !errors.Is(err, ErrTooManySamples) {
		t.Fatalf("err = %v, want ErrTooManySamples", err)
	}
}

func TestWritePathsRoundTrip(t *testing.T) {
	m := simulate(t, 30, 150)

	var buf bytes.Buffer
	digest, n, err := WritePaths(&buf, m, DefaultLimit)
	if err != nil {
		t.Fatal(err)
	}
	if n != DefaultLimit {
		t.Fatalf("wrote %d trajectories, want %d", n, DefaultLimit)
	}

	r := NewReader(&buf)
	all, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != DefaultLimit {
		t.Fatalf("read %d trajectories, want %d", len(all), DefaultLimit)
	}
	for i, prices := range all {
		assertSeries(t, prices, m.Trajectory(i))
	}
	if r.Digest() != digest {
		t.Fatalf("reader digest %s != writer digest %s", r.Digest(), digest)
	}
}

func TestWritePathsDigestIsStable(t *testing.T) {
	var a, b bytes.Buffer
	da, _, err := WritePaths(&a, simulate(t, 10, 5), 0)
	if err != nil {
		t.Fatal(err)
	}
	db, _, err := WritePaths(&b, simulate(t, 10, 5), 0)
	if err != nil {
		t.Fatal(err)
	}
	if da != db || !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("same seed produced different export streams")
	}
}

func TestReaderErrors(t *testing.T) {
	var buf bytes.Buffer
	if _, _, err := WritePaths(&buf, simulate(t, 5, 2), 0); err != nil {
		t.Fatal(err)
	}
	stream := buf.Bytes()

	truncated := NewReader(bytes.NewReader(stream[:len(stream)-3]))
	if _, err := truncated.Next(); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if _, err := truncated.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}

	corrupt := bytes.Clone(stream)
	corrupt[6] ^= 0x01
	if _, err := NewReader(bytes.NewReader(corrupt)).ReadAll(); !errors.Is(err, ErrInvalidChecksum) {
		t.Fatalf("err = %v, want ErrInvalidChecksum", err)
	}

	empty := NewReader(bytes.NewReader(nil))
	if _, err := empty.Next(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func assertSeries(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Float64bits(got[i]) != math.Float64bits(want[i]) {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}
