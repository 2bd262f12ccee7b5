package indicator

import "github.com/rxtech-lab/argo-codegen/pkg/template"

// NewRSI returns the relative strength index template. Gains and losses are
// smoothed with Wilder's moving average.
func NewRSI() *template.IndicatorTemplate {
	t := template.Num
	period := template.Param("period")
	change := template.Var("change")

	return &template.IndicatorTemplate{
		Name:        "rsi",
		Description: "Relative strength index",
		Params: []template.ParamDecl{
			numberParam("period", 14, "Smoothing period"),
			sourceParam(template.SeriesClose),
		},
		Lines: []string{"rsi"},
		Variables: []template.VariableDefinition{
			template.Define("price", template.Src("source")),
			template.Define("change", template.Sub(template.Var("price"), previous("price"))),
			template.Define("gain", template.If(template.Gt(change, t(0)), change, t(0))),
			template.Define("loss", template.If(template.Lt(change, t(0)), template.Neg(change), t(0))),
			template.Define("avg_gain", template.Agg(template.MethodRMA, template.Var("gain"), period)),
			template.Define("avg_loss", template.Agg(template.MethodRMA, template.Var("loss"), period)),
			warmup(template.Define("rsi", template.If(
				template.Eq(template.Var("avg_loss"), t(0)),
				t(100),
				template.Sub(t(100), template.Div(t(100), template.Add(t(1), template.Div(template.Var("avg_gain"), template.Var("avg_loss"))))),
			)), template.Add(period, t(1))),
		},
		Exports: []template.Export{{Line: "rsi", Variable: "rsi"}},
	}
}
