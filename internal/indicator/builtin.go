package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// Builtins returns fresh copies of the indicator templates shipped with the generator.
func Builtins() []*template.IndicatorTemplate {
	return []*template.IndicatorTemplate{
		NewMA(),
		NewEMA(),
		NewRSI(),
		NewMACD(),
		NewBollingerBands(),
		NewATR(),
		NewWaddahAttar(),
	}
}

// DefaultCatalog returns a catalog holding every builtin indicator.
func DefaultCatalog() Catalog {
	catalog := NewCatalog()

	for _, tpl := range Builtins() {
		if err := catalog.RegisterIndicator(tpl); err != nil {
			// builtins are covered by tests; failing here is a programming error
			panic(err)
		}
	}

	return catalog
}

func numberParam(name string, def float64, description string) template.ParamDecl {
	return template.ParamDecl{
		Name:        name,
		Kind:        template.ParamNumber,
		Default:     optional.Some[template.Argument](template.NumberArg{Value: template.Num(def)}),
		Description: description,
	}
}

func requiredNumberParam(name, description string) template.ParamDecl {
	return template.ParamDecl{
		Name:        name,
		Kind:        template.ParamNumber,
		Required:    true,
		Description: description,
	}
}

func sourceParam(def template.PriceSeries) template.ParamDecl {
	return template.ParamDecl{
		Name:        "source",
		Kind:        template.ParamSource,
		Default:     optional.Some[template.Argument](template.SourceArg{Value: template.Price(def)}),
		Description: "Series the indicator is computed on",
	}
}

// previous returns the prior bar of a variable, or its current value on the first bar.
func previous(name string) template.Expression {
	return template.VariableRef{
		Name:     name,
		Kind:     template.ValueArray,
		Shift:    optional.Some(template.Num(1)),
		Fallback: optional.Some(template.Var(name)),
	}
}

// warmup guards a variable for the first period-1 bars.
func warmup(def template.VariableDefinition, period template.Expression) template.VariableDefinition {
	def.InvalidPeriod = optional.Some(template.Sub(period, template.Num(1)))

	return def
}
