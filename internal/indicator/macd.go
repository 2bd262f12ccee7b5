package indicator

import "github.com/rxtech-lab/argo-codegen/pkg/template"

// NewMACD returns the moving average convergence divergence template.
func NewMACD() *template.IndicatorTemplate {
	src := template.Src("source")

	return &template.IndicatorTemplate{
		Name:        "macd",
		Description: "Moving average convergence divergence",
		Params: []template.ParamDecl{
			numberParam("fast_period", 12, "Fast EMA period"),
			numberParam("slow_period", 26, "Slow EMA period"),
			numberParam("signal_period", 9, "Signal EMA period"),
			sourceParam(template.SeriesClose),
		},
		Lines: []string{"macd", "signal", "histogram"},
		Variables: []template.VariableDefinition{
			template.Define("fast", template.Agg(template.MethodEMA, src, template.Param("fast_period"))),
			template.Define("slow", template.Agg(template.MethodEMA, src, template.Param("slow_period"))),
			template.Define("macd", template.Sub(template.Var("fast"), template.Var("slow"))),
			template.Define("signal", template.Agg(template.MethodEMA, template.Var("macd"), template.Param("signal_period"))),
			template.Define("histogram", template.Sub(template.Var("macd"), template.Var("signal"))),
		},
		Exports: []template.Export{
			{Line: "macd", Variable: "macd"},
			{Line: "signal", Variable: "signal"},
			{Line: "histogram", Variable: "histogram"},
		},
	}
}
