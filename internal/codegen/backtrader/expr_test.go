package backtrader

import (
	"testing"

	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetAlignsHigherTimeframeVariables(t *testing.T) {
	s := &scope{def: &ir.IndicatorDefinition{Name: "thing"}}
	period := call(Name{ID: "int"}, attr(self, "p", "period"))

	tests := []struct {
		name  string
		ref   ir.BarRef
		ratio int
		want  Expr
		zero  bool
	}{
		{
			name: "constant shift on a higher-timeframe variable",
			ref:  ir.BarRef{Source: ir.VariableSource{Name: "trend", Ratio: 4}, Shift: ir.Constant{Value: 6}},
			want: Int{Value: 4},
		},
		{
			name: "constant shift below the ratio",
			ref:  ir.BarRef{Source: ir.VariableSource{Name: "trend", Ratio: 4}, Shift: ir.Constant{Value: 3}},
			want: Int{Value: 0},
			zero: true,
		},
		{
			name: "parameter shift on a higher-timeframe variable",
			ref:  ir.BarRef{Source: ir.VariableSource{Name: "trend", Ratio: 4}, Shift: ir.ParamRef{Name: "period"}},
			want: BinOp{Op: "*", Left: BinOp{Op: "//", Left: period, Right: Int{Value: 4}}, Right: Int{Value: 4}},
		},
		{
			name:  "parameter shift on a resampled price feed",
			ref:   ir.BarRef{Source: ir.PriceSource{Series: "close", Ratio: 4}, Shift: ir.ParamRef{Name: "period"}},
			ratio: 4,
			want:  BinOp{Op: "//", Left: period, Right: Int{Value: 4}},
		},
		{
			name:  "parameter shift on the base timeframe",
			ref:   ir.BarRef{Source: ir.VariableSource{Name: "x", Ratio: 1}, Shift: ir.ParamRef{Name: "period"}},
			ratio: 1,
			want:  period,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio := tt.ratio
			if ratio == 0 {
				ratio = 1
			}

			got, zero, err := s.offset(tt.ref, ratio)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.zero, zero)
		})
	}
}
