package indicator

import "github.com/rxtech-lab/argo-codegen/pkg/template"

// NewWaddahAttar returns the Waddah Attar Explosion template. Trend is the MACD
// scaled by the multiplier and explosion is the ATR scaled by the same factor.
func NewWaddahAttar() *template.IndicatorTemplate {
	src := template.Src("source")
	multiplier := template.Param("multiplier")

	return &template.IndicatorTemplate{
		Name:        "waddah_attar",
		Description: "Waddah Attar Explosion",
		Params: []template.ParamDecl{
			numberParam("fast_period", 20, "Fast EMA period"),
			numberParam("slow_period", 40, "Slow EMA period"),
			numberParam("atr_period", 14, "ATR period"),
			numberParam("multiplier", 150, "Sensitivity"),
			sourceParam(template.SeriesClose),
		},
		Lines: []string{"trend", "explosion"},
		Variables: []template.VariableDefinition{
			template.Define("fast", template.Agg(template.MethodEMA, src, template.Param("fast_period"))),
			template.Define("slow", template.Agg(template.MethodEMA, src, template.Param("slow_period"))),
			template.Define("true_range", trueRange()),
			template.Define("atr", template.Agg(template.MethodRMA, template.Var("true_range"), template.Param("atr_period"))),
			template.Define("trend", template.Mul(template.Sub(template.Var("fast"), template.Var("slow")), multiplier)),
			template.Define("explosion", template.Mul(template.Var("atr"), multiplier)),
		},
		Exports: []template.Export{
			{Line: "trend", Variable: "trend"},
			{Line: "explosion", Variable: "explosion"},
		},
	}
}
