package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleFunctionProducesExpectedSkeleton(t *testing.T) {
	var sb strings.Builder
	err := Compile("main(){ return 1+1; }", &sb, Options{})
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, ".intel_syntax noprefix\n")
	assert.Contains(t, out, ".globl main\n")
	assert.Contains(t, out, "main:\n")
	assert.Contains(t, out, "push rbp\n")
	assert.Contains(t, out, "mov rbp, rsp\n")
	assert.Contains(t, out, "pop rbp\n")
	assert.Contains(t, out, "ret\n")
}

func TestCompileMultipleFunctionsEachGetAPrologue(t *testing.T) {
	var sb strings.Builder
	err := Compile("g(x){ return x; } main(){ return g(1); }", &sb, Options{})
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "g:\n")
	assert.Contains(t, out, "main:\n")
	assert.Equal(t, 2, strings.Count(out, "push rbp\n"))
}

func TestCompileIsIdempotent(t *testing.T) {
	src := "main(){ int a; a=3; int *p; p=&a; return *p; }"
	var first, second strings.Builder
	require.NoError(t, Compile(src, &first, Options{}))
	require.NoError(t, Compile(src, &second, Options{}))
	assert.Equal(t, first.String(), second.String())
}

func TestCompileSyntaxErrorIsWrapped(t *testing.T) {
	var sb strings.Builder
	err := Compile("main( { return 0; }", &sb, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error")
}

func TestCompileTooManyCallArgumentsIsAnError(t *testing.T) {
	var sb strings.Builder
	src := "g(a,b,c,d,e,f){return 0;} main(){ return g(1,2,3,4,5,6,7); }"
	err := Compile(src, &sb, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than 6")
}

func TestCompileFunctionWithZeroLocalsHasZeroStackSize(t *testing.T) {
	var sb strings.Builder
	err := Compile("main(){ return 5; }", &sb, Options{})
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "sub rsp, 0\n")
}

func TestCompileWhileLoopProducesBackEdge(t *testing.T) {
	var sb strings.Builder
	err := Compile("f(n){ while (n) { n=n-1; } return n; }", &sb, Options{})
	require.NoError(t, err)
	out := sb.String()
	assert.Contains(t, out, ".Lbegin0:\n")
	assert.Contains(t, out, "jmp .Lbegin0\n")
}
