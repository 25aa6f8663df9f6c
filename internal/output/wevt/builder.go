package wevt

import (
	"encoding/binary"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// builder appends little-endian values and supports patching earlier
// positions once a forward offset is known.
type builder struct {
	buf []byte
}

func (b *builder) pos() uint32 { return uint32(len(b.buf)) }

func (b *builder) u8(v uint8) { b.buf = append(b.buf, v) }

func (b *builder) u16(v uint16) { b.buf = binary.LittleEndian.AppendUint16(b.buf, v) }

func (b *builder) u32(v uint32) { b.buf = binary.LittleEndian.AppendUint32(b.buf, v) }

func (b *builder) u64(v uint64) { b.buf = binary.LittleEndian.AppendUint64(b.buf, v) }

func (b *builder) magic(m string) { b.buf = append(b.buf, m[:4]...) }

// reserve writes a zero uint32 and returns its position.
func (b *builder) reserve() uint32 {
	p := b.pos()
	b.u32(0)
	return p
}

func (b *builder) patch(at, v uint32) {
	binary.LittleEndian.PutUint32(b.buf[at:], v)
}

// guid writes id in Windows GUID layout: the first three fields little-endian.
func (b *builder) guid(id uuid.UUID) {
	b.buf = append(b.buf, guidBytes(id)...)
}

func guidBytes(id uuid.UUID) []byte {
	out := make([]byte, 16)
	out[0], out[1], out[2], out[3] = id[3], id[2], id[1], id[0]
	out[4], out[5] = id[5], id[4]
	out[6], out[7] = id[7], id[6]
	copy(out[8:], id[8:])
	return out
}

// str writes a length-prefixed, NUL-terminated UTF-16LE string padded to
// four bytes and returns its offset.
func (b *builder) str(s string) (uint32, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	body, err := enc.Bytes([]byte(s + "\x00"))
	if err != nil {
		return 0, err
	}
	at := b.pos()
	size := 4 + len(body)
	pad := (4 - size%4) % 4
	b.u32(uint32(size + pad))
	b.buf = append(b.buf, body...)
	b.buf = append(b.buf, make([]byte, pad)...)
	return at, nil
}

// names collects string references of one element list; flush writes the
// strings and patches the references.
type names struct {
	refs []nameRef
}

type nameRef struct {
	at uint32
	s  string
}

func (n *names) ref(b *builder, s string) {
	if s == "" {
		b.u32(0)
		return
	}
	n.refs = append(n.refs, nameRef{at: b.reserve(), s: s})
}

func (n *names) flush(b *builder) error {
	for _, r := range n.refs {
		off, err := b.str(r.s)
		if err != nil {
			return err
		}
		b.patch(r.at, off)
	}
	n.refs = nil
	return nil
}
