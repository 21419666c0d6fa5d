package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nabbar/wirerpc/logging"
)

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	c := logging.New()
	c.SetFields(logging.Fields{"a": "1"})

	child := c.WithFields(logging.Fields{"b": "2"})

	if _, ok := c.GetFields()["b"]; ok {
		t.Fatalf("parent fields were mutated by WithFields")
	}
	if _, ok := child.GetFields()["a"]; !ok {
		t.Fatalf("child is missing inherited field a")
	}
	if _, ok := child.GetFields()["b"]; !ok {
		t.Fatalf("child is missing new field b")
	}
}

func TestSessionIDIsShortAndStable(t *testing.T) {
	_, id, err := logging.WithSession(logging.New())
	if err != nil {
		t.Fatalf("WithSession: %v", err)
	}
	if len(id) == 0 || len(id) > 12 {
		t.Fatalf("expected a short non-empty session id, got %q", id)
	}
}

func TestHCLogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	c := logging.New()
	c.Entry().Logger.SetOutput(&buf)
	c.SetLevel(logging.WarnLevel)

	hc := logging.HCLog(c)
	hc.Debug("should not appear")
	hc.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("debug line leaked through at WarnLevel: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn line missing: %q", out)
	}
}
