package feedws

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newWriterLogger(&buf)

	l.Infof("connected to %s", "ws://feed.test")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "connected to ws://feed.test")
}

func TestWriterLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	l := newWriterLogger(&buf)

	l.WithField("component", "gateway").Warnln("dropping frame")

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "component=gateway")
	assert.Contains(t, out, "dropping frame")
}

func TestWriterLoggerWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := newWriterLogger(&buf)

	l.WithField("component", "gateway")
	l.Error("boom")

	assert.NotContains(t, buf.String(), "component=gateway")
}
