// Package msgtable encodes message-table resources (MESSAGE_RESOURCE_DATA).
package msgtable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"evmc/internal/core/ports"

	"golang.org/x/text/encoding/unicode"
)

const (
	blockSize       = 12
	entryHeaderSize = 4
	flagUnicode     = 0x0001
)

type block struct {
	low, high uint32
	entries   [][]byte
}

// Writer implements ports.MessageTableWriter. Entries are UTF-16LE, NUL
// terminated and padded to four bytes; consecutive IDs share a block.
type Writer struct{}

func (Writer) Write(w io.Writer, messages []ports.Message) error {
	sorted := make([]ports.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var blocks []*block
	for i, m := range sorted {
		if i > 0 && m.ID == sorted[i-1].ID {
			continue
		}
		entry, err := encodeEntry(m.Value)
		if err != nil {
			return fmt.Errorf("encode message %s (0x%08X): %w", m.Name, m.ID, err)
		}
		if n := len(blocks); n > 0 && blocks[n-1].high+1 == m.ID {
			blocks[n-1].high = m.ID
			blocks[n-1].entries = append(blocks[n-1].entries, entry)
			continue
		}
		blocks = append(blocks, &block{low: m.ID, high: m.ID, entries: [][]byte{entry}})
	}

	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.Write(le.AppendUint32(nil, uint32(len(blocks))))
	offset := uint32(4 + blockSize*len(blocks))
	for _, b := range blocks {
		buf.Write(le.AppendUint32(nil, b.low))
		buf.Write(le.AppendUint32(nil, b.high))
		buf.Write(le.AppendUint32(nil, offset))
		for _, e := range b.entries {
			offset += uint32(len(e))
		}
	}
	for _, b := range blocks {
		for _, e := range b.entries {
			buf.Write(e)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func encodeEntry(text string) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	body, err := enc.Bytes([]byte(text + "\x00"))
	if err != nil {
		return nil, err
	}
	size := entryHeaderSize + len(body)
	pad := (4 - size%4) % 4
	out := make([]byte, 0, size+pad)
	out = binary.LittleEndian.AppendUint16(out, uint16(size+pad))
	out = binary.LittleEndian.AppendUint16(out, flagUnicode)
	out = append(out, body...)
	out = append(out, make([]byte, pad)...)
	return out, nil
}

// Entry is one decoded message.
type Entry struct {
	ID   uint32
	Text string
}

// Read decodes a message table written by Writer.
func Read(data []byte) ([]Entry, error) {
	le := binary.LittleEndian
	if len(data) < 4 {
		return nil, fmt.Errorf("message table too short")
	}
	n := le.Uint32(data)
	if uint64(len(data)) < 4+uint64(n)*blockSize {
		return nil, fmt.Errorf("message table truncated: %d blocks", n)
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	var out []Entry
	for i := uint32(0); i < n; i++ {
		hdr := data[4+i*blockSize:]
		low, high, off := le.Uint32(hdr), le.Uint32(hdr[4:]), le.Uint32(hdr[8:])
		for id := low; ; id++ {
			if int(off)+entryHeaderSize > len(data) {
				return nil, fmt.Errorf("entry 0x%08X out of bounds", id)
			}
			size := int(le.Uint16(data[off:]))
			if size < entryHeaderSize || int(off)+size > len(data) {
				return nil, fmt.Errorf("entry 0x%08X has invalid size %d", id, size)
			}
			text, err := dec.Bytes(data[int(off)+entryHeaderSize : int(off)+size])
			if err != nil {
				return nil, fmt.Errorf("decode entry 0x%08X: %w", id, err)
			}
			out = append(out, Entry{ID: id, Text: string(bytes.TrimRight(text, "\x00"))})
			off += uint32(size)
			if id == high {
				break
			}
		}
	}
	return out, nil
}
