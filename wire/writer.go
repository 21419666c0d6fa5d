package wire

import (
	"strconv"

	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/nbio"
	"github.com/nabbar/wirerpc/remoteerror"
)

// Writer writes wire-format values to a bound non-blocking output buffer.
type Writer struct {
	out *nbio.BoundOutbuf
}

// NewWriter builds a Writer over out.
func NewWriter(out *nbio.BoundOutbuf) *Writer { return &Writer{out: out} }

// awaitSpace blocks until the buffer can accept at least one more byte,
// triggering a flush to the sink if it's currently full.
func (w *Writer) awaitSpace() error {
	if w.out.Writable() {
		return nil
	}
	ch := make(chan struct{})
	w.out.StartFlush(func() { close(ch) })
	<-ch
	if st := w.out.Status(); !st.IsOK() {
		return st.AsError()
	}
	return nil
}

func (w *Writer) writeByte(b byte) error {
	for !w.out.Put(b) {
		if err := w.awaitSpace(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeBytes(p []byte) error {
	for _, b := range p {
		if err := w.writeByte(b); err != nil {
			return err
		}
	}
	return nil
}

// Flush drives any buffered bytes to the sink and blocks until fully
// drained, used at the end of a write sequence (spec.md §4.5 step 6).
func (w *Writer) Flush() error {
	ch := make(chan struct{})
	w.out.StartFlush(func() { close(ch) })
	<-ch
	if st := w.out.Status(); !st.IsOK() {
		return st.AsError()
	}
	return nil
}

// WriteEOM writes the single '\n' ending a message.
func (w *Writer) WriteEOM() error { return w.writeByte('\n') }

func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.writeBytes([]byte("| "))
	}
	return w.writeBytes([]byte("& "))
}

func (w *Writer) WriteUint64(v uint64) error {
	return w.writeBytes(append(strconv.AppendUint(nil, v, 10), ' '))
}

func (w *Writer) WriteInt64(v int64) error {
	return w.writeBytes(append(strconv.AppendInt(nil, v, 10), ' '))
}

func (w *Writer) WriteString(v string) error {
	if err := w.writeByte('"'); err != nil {
		return err
	}
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\n':
			if err := w.writeBytes([]byte(`\n`)); err != nil {
				return err
			}
		case '"':
			if err := w.writeBytes([]byte(`\"`)); err != nil {
				return err
			}
		case '\\':
			if err := w.writeBytes([]byte(`\\`)); err != nil {
				return err
			}
		default:
			if err := w.writeByte(v[i]); err != nil {
				return err
			}
		}
	}
	return w.writeBytes([]byte(`" `))
}

func (w *Writer) WriteIdentifier(id ident.Identifier) error {
	if err := w.writeBytes([]byte(id.String())); err != nil {
		return err
	}
	return w.writeByte(' ')
}

func (w *Writer) writeRemoteErrorAggregate(e remoteerror.RemoteError) error {
	if err := w.writeBytes([]byte("{ ")); err != nil {
		return err
	}
	if err := w.WriteIdentifier(e.Type); err != nil {
		return err
	}
	if err := w.WriteString(e.Description); err != nil {
		return err
	}
	return w.writeBytes([]byte("} "))
}

// WriteRemoteError writes a top-level remote_error aggregate value.
func (w *Writer) WriteRemoteError(e remoteerror.RemoteError) error {
	return w.writeRemoteErrorAggregate(e)
}

// WriteInlineException writes the '!' marker followed by the remote_error
// aggregate, in lieu of a reply that could not be completed (spec.md §4.5
// step 5). It may appear at any whitespace position in the stream.
func (w *Writer) WriteInlineException(e remoteerror.RemoteError) error {
	if err := w.writeByte('!'); err != nil {
		return err
	}
	if err := w.writeByte(' '); err != nil {
		return err
	}
	return w.writeRemoteErrorAggregate(e)
}
