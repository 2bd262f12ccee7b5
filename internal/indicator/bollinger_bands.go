package indicator

import "github.com/rxtech-lab/argo-codegen/pkg/template"

// NewBollingerBands returns the Bollinger Bands template: a simple moving average
// with bands a multiple of the rolling standard deviation away.
func NewBollingerBands() *template.IndicatorTemplate {
	period := template.Param("period")
	src := template.Src("source")
	width := template.Mul(template.Param("std_dev"), template.Var("deviation"))

	return &template.IndicatorTemplate{
		Name:        "bollinger_bands",
		Description: "Bollinger Bands",
		Params: []template.ParamDecl{
			numberParam("period", 20, "Averaging period"),
			numberParam("std_dev", 2, "Band width in standard deviations"),
			sourceParam(template.SeriesClose),
		},
		Lines: []string{"upper", "middle", "lower"},
		Variables: []template.VariableDefinition{
			warmup(template.Define("middle", template.Agg(template.MethodSMA, src, period)), period),
			warmup(template.Define("deviation", template.Agg(template.MethodStdDev, src, period)), period),
			template.Define("upper", template.Add(template.Var("middle"), width)),
			template.Define("lower", template.Sub(template.Var("middle"), width)),
		},
		Exports: []template.Export{
			{Line: "upper", Variable: "upper"},
			{Line: "middle", Variable: "middle"},
			{Line: "lower", Variable: "lower"},
		},
	}
}
