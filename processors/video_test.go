package processors

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "plain number", raw: "25", want: 25},
		{name: "rational", raw: "30000/1001", want: 30000.0 / 1001.0},
		{name: "whole rational", raw: "30/1", want: 30},
		{name: "zero denominator", raw: "30/0", wantErr: true},
		{name: "garbage", raw: "n/a", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFrameRate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestReadJPEGFrame(t *testing.T) {
	frameA := []byte{0xff, 0xd8, 0x01, 0x02, 0x03, 0xff, 0xd9}
	frameB := []byte{0xff, 0xd8, 0x04, 0xff, 0xd9}

	// Leading junk before the first SOI marker is skipped.
	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0x42})
	stream.Write(frameA)
	stream.Write(frameB)

	r := bufio.NewReader(&stream)

	got, err := readJPEGFrame(r)
	require.NoError(t, err)
	assert.Equal(t, frameA, got)

	got, err = readJPEGFrame(r)
	require.NoError(t, err)
	assert.Equal(t, frameB, got)

	_, err = readJPEGFrame(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadJPEGFrameTruncated(t *testing.T) {
	// A frame cut off mid-stream surfaces as an error, which the source
	// reports as end of stream.
	r := bufio.NewReader(bytes.NewReader([]byte{0xff, 0xd8, 0x01, 0x02}))
	_, err := readJPEGFrame(r)
	assert.Error(t, err)
}
