package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZerologWriterIncludesComponent(t *testing.T) {
	assert.NoError(t, os.Unsetenv("APP_ENV"))
	var buf bytes.Buffer
	l := NewZerologWriter("store", &buf)
	l.Infof("loaded %d entries", 3)
	out := buf.String()
	if !strings.Contains(out, `"component":"store"`) {
		t.Fatalf("missing component field: %s", out)
	}
	if !strings.Contains(out, "loaded 3 entries") {
		t.Fatalf("missing message: %s", out)
	}
}

func TestZerologWriterStructuredFields(t *testing.T) {
	assert.NoError(t, os.Unsetenv("APP_ENV"))
	var buf bytes.Buffer
	l := NewZerologWriter("publish", &buf)
	l.Debugw("pushed", map[string]any{"files": 2})
	if !strings.Contains(buf.String(), `"files":2`) {
		t.Fatalf("missing structured field: %s", buf.String())
	}
}

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}
