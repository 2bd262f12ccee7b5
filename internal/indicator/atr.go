package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// trueRange is the largest of the bar range and the gaps from the previous close.
func trueRange() template.Expression {
	high := template.Price(template.SeriesHigh)
	low := template.Price(template.SeriesLow)
	prevClose := template.PriceRef{
		Series:   template.SeriesClose,
		Shift:    optional.Some(template.Num(1)),
		Fallback: optional.Some(template.Price(template.SeriesClose)),
	}

	return template.Max(
		template.Sub(high, low),
		template.Max(template.Abs(template.Sub(high, prevClose)), template.Abs(template.Sub(low, prevClose))),
	)
}

// NewATR returns the average true range template.
func NewATR() *template.IndicatorTemplate {
	return &template.IndicatorTemplate{
		Name:        "atr",
		Description: "Average true range",
		Params: []template.ParamDecl{
			numberParam("period", 14, "Smoothing period"),
		},
		Lines: []string{"atr"},
		Variables: []template.VariableDefinition{
			template.Define("true_range", trueRange()),
			template.Define("atr", template.Agg(template.MethodRMA, template.Var("true_range"), template.Param("period"))),
		},
		Exports: []template.Export{{Line: "atr", Variable: "atr"}},
	}
}
