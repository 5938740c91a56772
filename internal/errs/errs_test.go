package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{KindConfiguration, "configuration"},
		{KindProtocol, "protocol"},
		{KindTransientIO, "transient_io"},
		{KindTimeout, "timeout"},
		{KindLogicInvariant, "logic_invariant"},
		{Kind(99), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.kind.String())
		})
	}
}

func TestConstructors_SetKindAndOp(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"configuration", Configuration("op.a", cause), KindConfiguration},
		{"protocol", Protocol("op.b", cause), KindProtocol},
		{"transient_io", TransientIO("op.c", cause), KindTransientIO},
		{"timeout", Timeout("op.d", cause), KindTimeout},
		{"logic_invariant", LogicInvariant("op.e", cause), KindLogicInvariant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.err.Kind)
			assert.Same(t, cause, tc.err.Err)
		})
	}
}

func TestError_ErrorMessageIncludesOpKindAndCause(t *testing.T) {
	e := Configuration("cli.setup", errors.New("bad port"))
	assert.Equal(t, "cli.setup [configuration]: bad port", e.Error())
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("underlying")
	e := Timeout("op", cause)

	assert.Same(t, cause, errors.Unwrap(e))
}

func TestError_ErrorsAsRecoversKind(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", Timeout("cli.run", errors.New("deadline")))

	var target *Error
	ok := errors.As(wrapped, &target)
	assert.True(t, ok)
	assert.Equal(t, KindTimeout, target.Kind)
}
