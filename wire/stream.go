package wire

import (
	"io"
)

// substreamThreshold is the size below which a reader-backed substream is
// buffered eagerly in memory. Lots of small reads against an os.File cost a
// syscall each; one buffered read of the whole frame does not.
const substreamThreshold = 4096

// Decoder is the byte-level read cursor over an extprot stream. A Decoder
// instance is a mutable cursor and must not be shared across goroutines
// without external synchronization.
type Decoder interface {
	// ReadByte consumes and returns the next byte.
	ReadByte() (byte, error)

	// Read consumes exactly n bytes. The returned slice may alias the
	// decoder's backing buffer and is only valid until the next call.
	Read(n int) ([]byte, error)

	// Skip discards exactly n bytes.
	Skip(n int) error

	// Substream derives a decoder covering exactly the next n bytes of
	// this stream. The substream must be fully consumed or abandoned
	// before the parent is used again; it must not outlive the parent.
	Substream(n int) (Decoder, error)
}

// ===== IN-MEMORY DECODER =====

// BytesDecoder decodes from an in-memory byte slice with a cursor.
type BytesDecoder struct {
	buf []byte
	pos int
}

// NewBytesDecoder creates a decoder over data. The decoder borrows data; the
// caller must not mutate it while decoding.
func NewBytesDecoder(data []byte) *BytesDecoder {
	return &BytesDecoder{buf: data}
}

// ReadByte consumes and returns the next byte.
func (d *BytesDecoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// Read consumes exactly n bytes, returning a zero-copy view of the backing
// buffer.
func (d *BytesDecoder) Read(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Skip discards exactly n bytes.
func (d *BytesDecoder) Skip(n int) error {
	if n < 0 || d.pos+n > len(d.buf) {
		return ErrUnexpectedEOF
	}
	d.pos += n
	return nil
}

// Substream returns a decoder over the next n bytes. The sub-decoder is a
// borrow over the same backing array; no bytes are copied.
func (d *BytesDecoder) Substream(n int) (Decoder, error) {
	b, err := d.Read(n)
	if err != nil {
		return nil, err
	}
	return &BytesDecoder{buf: b}, nil
}

// Remaining reports how many bytes are left to read.
func (d *BytesDecoder) Remaining() int {
	return len(d.buf) - d.pos
}

// Pos reports the current cursor position.
func (d *BytesDecoder) Pos() int {
	return d.pos
}

// ===== READER-BACKED DECODER =====

// ReaderDecoder decodes from a caller-provided io.Reader. Each Read pulls
// exactly the requested bytes from the source; a short source surfaces as
// ErrUnexpectedEOF.
type ReaderDecoder struct {
	r   io.Reader
	one [1]byte
}

// NewReaderDecoder creates a decoder over r. The decoder holds a non-owning
// reference; closing r remains the caller's business.
func NewReaderDecoder(r io.Reader) *ReaderDecoder {
	return &ReaderDecoder{r: r}
}

// ReadByte consumes and returns the next byte.
func (d *ReaderDecoder) ReadByte() (byte, error) {
	if _, err := io.ReadFull(d.r, d.one[:]); err != nil {
		return 0, ErrUnexpectedEOF
	}
	return d.one[0], nil
}

// Read consumes exactly n bytes into a fresh slice.
func (d *ReaderDecoder) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, ErrUnexpectedEOF
	}
	return b, nil
}

// Skip discards exactly n bytes.
func (d *ReaderDecoder) Skip(n int) error {
	if n < 0 {
		return ErrUnexpectedEOF
	}
	if _, err := io.CopyN(io.Discard, d.r, int64(n)); err != nil {
		return ErrUnexpectedEOF
	}
	return nil
}

// Substream derives a decoder for the next n bytes. Small frames are read
// eagerly into an in-memory decoder; large ones keep streaming from the
// source, in which case the caller's framing discipline bounds the reads.
func (d *ReaderDecoder) Substream(n int) (Decoder, error) {
	if n < substreamThreshold {
		b, err := d.Read(n)
		if err != nil {
			return nil, err
		}
		return NewBytesDecoder(b), nil
	}
	return d, nil
}

// ===== ENCODER SINKS =====

// Encoder is the byte-level write sink for an extprot stream.
type Encoder interface {
	Write(p []byte) error
	WriteByte(b byte) error
}

// Buffer is a growable in-memory encoder sink. The zero value is ready to
// use. Delimited frames are rendered into a scratch Buffer first so their
// byte length is known before the frame is emitted.
type Buffer struct {
	buf []byte
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// grow ensures room for n more bytes, doubling capacity until the requested
// size fits. Writers never truncate.
func (b *Buffer) grow(n int) {
	need := len(b.buf) + n
	if need <= cap(b.buf) {
		return
	}
	newCap := cap(b.buf)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < need {
		newCap *= 2
	}
	nb := make([]byte, len(b.buf), newCap)
	copy(nb, b.buf)
	b.buf = nb
}

// Write appends p to the buffer.
func (b *Buffer) Write(p []byte) error {
	b.grow(len(p))
	b.buf = append(b.buf, p...)
	return nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	b.grow(1)
	b.buf = append(b.buf, c)
	return nil
}

// Bytes returns the encoded bytes. The slice aliases the buffer; it is
// valid until the next write or Reset.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len reports the number of bytes written.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Reset clears the buffer, retaining capacity.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Reader returns a decoder positioned at the start of the written bytes.
func (b *Buffer) Reader() *BytesDecoder {
	return NewBytesDecoder(b.buf)
}

// WriterEncoder adapts a caller-provided io.Writer into an encoder sink.
// Partial writes may have appended bytes when an error surfaces; callers
// wanting transactional output should render into a Buffer first.
type WriterEncoder struct {
	w   io.Writer
	one [1]byte
}

// NewWriterEncoder creates an encoder over w.
func NewWriterEncoder(w io.Writer) *WriterEncoder {
	return &WriterEncoder{w: w}
}

// Write sends p to the underlying writer.
func (e *WriterEncoder) Write(p []byte) error {
	_, err := e.w.Write(p)
	return err
}

// WriteByte sends a single byte to the underlying writer.
func (e *WriterEncoder) WriteByte(b byte) error {
	e.one[0] = b
	_, err := e.w.Write(e.one[:])
	return err
}
