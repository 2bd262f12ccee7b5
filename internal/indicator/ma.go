package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// MovingAverageName is the catalog name of the moving average indicator.
const MovingAverageName = "moving_average"

// NewMA returns the moving average template. The averaging method is chosen by
// the caller through the method parameter.
func NewMA() *template.IndicatorTemplate {
	period := template.Param("period")

	return &template.IndicatorTemplate{
		Name:        MovingAverageName,
		Description: "Moving average of a series over a period",
		Params: []template.ParamDecl{
			requiredNumberParam("period", "Number of bars to average"),
			sourceParam(template.SeriesClose),
			{
				Name:        "method",
				Kind:        template.ParamAggregation,
				Default:     optional.Some[template.Argument](template.MethodArg{Method: template.MethodSMA}),
				Options:     []template.AggregationMethod{template.MethodSMA, template.MethodEMA, template.MethodRMA, template.MethodSMMA, template.MethodLWMA},
				Description: "Averaging method",
			},
		},
		Lines: []string{"ma"},
		Variables: []template.VariableDefinition{
			warmup(template.Define("ma", template.AggBy("method", template.Src("source"), period)), period),
		},
		Exports: []template.Export{{Line: "ma", Variable: "ma"}},
	}
}
