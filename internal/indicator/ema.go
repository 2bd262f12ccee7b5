package indicator

import "github.com/rxtech-lab/argo-codegen/pkg/template"

// NewEMA returns the exponential moving average template.
func NewEMA() *template.IndicatorTemplate {
	return &template.IndicatorTemplate{
		Name:        "ema",
		Description: "Exponential moving average",
		Params: []template.ParamDecl{
			numberParam("period", 20, "Smoothing period"),
			sourceParam(template.SeriesClose),
		},
		Lines: []string{"ema"},
		Variables: []template.VariableDefinition{
			template.Define("ema", template.Agg(template.MethodEMA, template.Src("source"), template.Param("period"))),
		},
		Exports: []template.Export{{Line: "ema", Variable: "ema"}},
	}
}
