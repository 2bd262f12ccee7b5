package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterIndentation(t *testing.T) {
	w := NewWriter(3)
	w.Line("void OnTick()")
	w.Line("{")
	w.Indent()
	w.Line("int bars = %d;", 10)
	w.Line("")
	w.Raw("if (bars < 2)\n\treturn;\n")
	w.Dedent()
	w.Line("}")
	w.Dedent()

	assert.Equal(t, "void OnTick()\n{\n   int bars = 10;\n\n   if (bars < 2)\n      return;\n}\n", w.String())
	assert.Equal(t, 3, w.Width())
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in    float64
		num   string
		float string
	}{
		{5, "5", "5.0"},
		{0.5, "0.5", "0.5"},
		{-12.25, "-12.25", "-12.25"},
		{0.1, "0.1", "0.1"},
		{100, "100", "100.0"},
		{0, "0", "0.0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.num, Number(tt.in))
		assert.Equal(t, tt.float, Float(tt.in))
	}

	assert.Equal(t, "42", Int(42))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "MovingAverage", Pascal("moving_average"))
	assert.Equal(t, "FastSMA", Pascal("fastSMA"))
	assert.Equal(t, "moving_average", Snake("moving_average"))
	assert.Equal(t, "fast_sma", Snake("fastSma"))
	assert.Equal(t, "my_strategy", Snake("MyStrategy"))
	assert.Equal(t, "MOVING_AVERAGE", Upper("moving_average"))
}

func TestGuard(t *testing.T) {
	out, err := Guard(func() string { return "ok" })
	assert.NoError(t, err)
	assert.Equal(t, "ok", out)

	out, err = Guard(func() string { panic(Unsupported{Node: 42}) })
	assert.Empty(t, out)
	assert.EqualError(t, err, "unsupported node int")

	assert.Panics(t, func() {
		_, _ = Guard(func() string { panic("boom") })
	})
}
