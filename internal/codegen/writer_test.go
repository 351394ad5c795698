package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLineIndentsAndFlushes(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)
	w.Line("mov rax, %d", 5)
	w.FuncLabel("main")
	w.Label(".Lend0")
	require.NoError(t, w.Flush())

	assert.Equal(t, "  mov rax, 5\nmain:\n.Lend0:\n", sb.String())
}

func TestWriterRawNotIndented(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)
	w.Raw(".intel_syntax noprefix\n")
	require.NoError(t, w.Flush())
	assert.Equal(t, ".intel_syntax noprefix\n", sb.String())
}

func TestWriterFlushResetsBuffer(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)
	w.Line("nop")
	require.NoError(t, w.Flush())
	w.Line("ret")
	require.NoError(t, w.Flush())
	assert.Equal(t, "  nop\n  ret\n", sb.String())
}
