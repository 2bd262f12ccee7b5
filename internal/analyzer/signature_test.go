package analyzer

import (
	"testing"

	"github.com/rxtech-lab/argo-codegen/internal/indicator"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/stretchr/testify/assert"
)

func TestSignature(t *testing.T) {
	ma := indicator.NewMA()

	tests := []struct {
		name string
		tpl  *template.IndicatorTemplate
		call template.IndicatorRef
		want string
	}{
		{
			name: "defaults filled",
			tpl:  ma,
			call: template.IndicatorRef{Name: ma.Name, Params: []template.ParamBinding{template.NumParam("period", template.Num(9))}},
			want: "moving_average(method=sma,period=9,source=close)",
		},
		{
			name: "explicit arguments override defaults",
			tpl:  ma,
			call: template.IndicatorRef{Name: ma.Name, Params: []template.ParamBinding{
				template.MethodParam("method", template.MethodEMA),
				template.SrcParam("source", template.PriceAt(template.SeriesHL2, 1, 0)),
				template.NumParam("period", template.Mul(template.Num(2), template.Num(4.5))),
			}},
			want: "moving_average(method=ema,period=9,source=hl2[1] ?? 0)",
		},
		{
			name: "unknown indicator keeps bindings",
			call: template.IndicatorRef{Name: "custom", Params: []template.ParamBinding{
				template.NumParam("b", template.Num(2)),
				template.NumParam("a", template.Num(1)),
			}},
			want: "custom(a=1,b=2)",
		},
		{
			name: "non constant numbers are kept verbatim",
			tpl:  ma,
			call: template.IndicatorRef{Name: ma.Name, Params: []template.ParamBinding{template.NumParam("period", template.Var("len"))}},
			want: "moving_average(method=sma,period=$len,source=close)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, _ := Signature(tt.tpl, tt.call)
			assert.Equal(t, tt.want, key)
		})
	}
}
