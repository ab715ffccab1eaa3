package avro

// SkipPrefix advances past one encoded value at the start of data without
// materializing it, returning the number of bytes consumed. Used by OCF
// block scanners and by readers that drop projected-out values.
func SkipPrefix(schema Schema, data []byte) (int, error) {
	r := newReader(data)
	if err := skipValue(schema, r); err != nil {
		return 0, err
	}
	return r.pos, nil
}

// skipValue advances r past one encoded value without materializing it,
// for readers that drop projected-out fields or scan past array/map
// elements (§4.4 "skip").
func skipValue(schema Schema, r *reader) error {
	schema = Deref(schema)

	if f, ok := schema.(*FixedSchema); ok {
		_, err := r.readN(f.size)
		return err
	}

	switch s := schema.(type) {
	case *PrimitiveSchema:
		return skipPrimitive(s, r)
	case *RecordSchema:
		for _, f := range s.fields {
			if err := skipValue(f.typ, r); err != nil {
				return err
			}
		}
		return nil
	case *EnumSchema:
		_, err := r.readVarint()
		return err
	case *ArraySchema:
		return skipBlocks(r, func() error { return skipValue(s.items, r) })
	case *MapSchema:
		return skipBlocks(r, func() error {
			kn, err := r.readVarint()
			if err != nil {
				return err
			}
			if _, err := r.readN(int(kn)); err != nil {
				return err
			}
			return skipValue(s.values, r)
		})
	case *UnionSchema:
		idx, err := r.readVarint()
		if err != nil {
			return err
		}
		if idx < 0 || int(idx) >= len(s.types) {
			return newErr(ErrNoUnionBranch, "union branch index %d out of range", idx)
		}
		return skipValue(s.types[idx], r)
	default:
		return newErr(ErrUnknownType, "cannot skip schema type %s", schema.Type())
	}
}

func skipPrimitive(s *PrimitiveSchema, r *reader) error {
	switch s.typ {
	case Null:
		return nil
	case Boolean:
		_, err := r.readByte()
		return err
	case Int, Long:
		_, err := r.readVarint()
		return err
	case Float:
		_, err := r.readN(4)
		return err
	case Double:
		_, err := r.readN(8)
		return err
	case Bytes, String:
		n, err := r.readVarint()
		if err != nil {
			return err
		}
		_, err = r.readN(int(n))
		return err
	default:
		return newErr(ErrUnknownType, "unexpected primitive %s", s.typ)
	}
}

// skipBlocks walks array/map block framing, calling skipElem once per
// element and honoring the negative-count byte_length form by trusting the
// per-element skip rather than the declared length (both must agree; the
// declared length exists so a reader MAY jump without decoding, which this
// codec chooses not to do since skipElem is already cheap).
func skipBlocks(r *reader, skipElem func() error) error {
	for {
		n, err := r.readVarint()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		count := n
		if count < 0 {
			if _, err := r.readVarint(); err != nil {
				return err
			}
			count = -count
		}
		for i := int64(0); i < count; i++ {
			if err := skipElem(); err != nil {
				return err
			}
		}
	}
}
