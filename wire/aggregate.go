package wire

// ReadAggregate reads `{ ... } `, running each field reader in declaration
// order; this is the generic shape user tuple-mapped types delegate to
// (spec.md §4.4's "tuple_mapping trait").
func ReadAggregate(r *Reader, fields ...func(r *Reader) error) error {
	if err := r.skipWhitespace(); err != nil {
		return err
	}
	b, err := r.nextByte()
	if err != nil {
		return err
	}
	if b != '{' {
		return expectedGot('{', b)
	}
	for _, f := range fields {
		if err := f(r); err != nil {
			return err
		}
	}
	if err := r.skipWhitespace(); err != nil {
		return err
	}
	b, err = r.nextByte()
	if err != nil {
		return err
	}
	if b != '}' {
		return expectedGot('}', b)
	}
	return nil
}

// WriteAggregate writes `{ ... } `, running each field writer in order.
func WriteAggregate(w *Writer, fields ...func(w *Writer) error) error {
	if err := w.writeBytes([]byte("{ ")); err != nil {
		return err
	}
	for _, f := range fields {
		if err := f(w); err != nil {
			return err
		}
	}
	return w.writeBytes([]byte("} "))
}

// ReadEnum/WriteEnum encode an enumeration as its underlying integer; only
// int-based enumeration types (E ~int) are accepted.
func ReadEnum[E ~int](r *Reader) (E, error) {
	v, err := r.ReadInt64()
	if err != nil {
		return 0, err
	}
	return E(v), nil
}

func WriteEnum[E ~int](w *Writer, v E) error {
	return w.WriteInt64(int64(v))
}
