package msgtable

import (
	"bytes"
	"encoding/binary"
	"testing"

	"evmc/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_BlocksAndRoundTrip(t *testing.T) {
	msgs := []ports.Message{
		{Name: "event", ID: 0xB0000001, Value: "Hello"},
		{Name: "provider", ID: 0x90000001, Value: "Contoso"},
		{Name: "channel", ID: 0x90000002, Value: "Contoso/Operational"},
	}
	var buf bytes.Buffer
	require.NoError(t, Writer{}.Write(&buf, msgs))

	data := buf.Bytes()
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data), "two runs of consecutive ids")
	assert.Equal(t, uint32(0x90000001), binary.LittleEndian.Uint32(data[4:]))
	assert.Equal(t, uint32(0x90000002), binary.LittleEndian.Uint32(data[8:]))

	entries, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{ID: 0x90000001, Text: "Contoso"},
		{ID: 0x90000002, Text: "Contoso/Operational"},
		{ID: 0xB0000001, Text: "Hello"},
	}, entries)
}

func TestWriter_EntriesAreAligned(t *testing.T) {
	for _, text := range []string{"", "a", "ab", "abc", "Grüße"} {
		e, err := encodeEntry(text)
		require.NoError(t, err)
		assert.Zero(t, len(e)%4, "entry for %q", text)
		assert.Equal(t, uint16(len(e)), binary.LittleEndian.Uint16(e))
		assert.Equal(t, uint16(flagUnicode), binary.LittleEndian.Uint16(e[2:]))
	}
}

func TestWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Writer{}.Write(&buf, nil))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())
}
