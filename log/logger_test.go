package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugfGatesOnLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Level = 2

	l.Debugf(3, "too verbose")
	assert.Empty(t, buf.String())

	l.Debugf(2, "exactly at level")
	assert.Contains(t, buf.String(), "exactly at level")
}

func TestLogDepflnPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.LogDepfln("hello %s", "world")
	assert.Equal(t, "depsplit: hello world\n", buf.String())
}
