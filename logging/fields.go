package logging

import "github.com/sirupsen/logrus"

// Fields is a structured field set attached to a Context. Add returns a new
// Fields value (the receiver is left untouched) so callers can derive a
// child Context's fields without mutating the parent's.
type Fields map[string]interface{}

// Add returns a copy of f with key set to val.
func (f Fields) Add(key string, val interface{}) Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[key] = val
	return out
}

// Merge returns a copy of f with every key of other overlaid on top.
func (f Fields) Merge(other Fields) Fields {
	out := make(Fields, len(f)+len(other))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (f Fields) logrus() logrus.Fields {
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
