package wire_test

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan10024/jeux-server/internal/adapters/wire"
)

func TestWriteThenReadFrameRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	h := wire.Header{Type: wire.TypeInvite, ID: 3, Role: 1}
	payload := []byte("alice")

	require.NoError(t, wire.WriteFrame(&buf, h, payload))

	got, gotPayload, err := wire.ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, wire.TypeInvite, got.Type)
	assert.Equal(t, byte(3), got.ID)
	assert.Equal(t, byte(1), got.Role)
	assert.Equal(t, uint16(len(payload)), got.Size)
	// ReadFrame appends a trailing NUL beyond Size.
	assert.Equal(t, append(append([]byte{}, payload...), 0), gotPayload)
}

func TestReadFrameReturnsEOFOnCleanStreamEnd(t *testing.T) {
	_, _, err := wire.ReadFrame(bufio.NewReader(bytes.NewReader(nil)))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameReportsShortHeaderAsIOError(t *testing.T) {
	truncated := bytes.NewReader(make([]byte, wire.HeaderSize-1))
	_, _, err := wire.ReadFrame(bufio.NewReader(truncated))
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, wire.MaxPayloadSize+1)
	err := wire.WriteFrame(&buf, wire.Header{Type: wire.TypeMove}, oversized)
	assert.Error(t, err)
}

func TestEmptyPayloadRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteFrame(&buf, wire.Header{Type: wire.TypeUsers}, nil))
	h, payload, err := wire.ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, uint16(0), h.Size)
	assert.Equal(t, []byte{0}, payload)
}
