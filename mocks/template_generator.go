package mocks

import (
	"fmt"
	"math/rand"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// TemplateGenerator generates random, well-formed strategy templates for
// property tests. Use a fixed seed for reproducible results.
type TemplateGenerator struct {
	rng *rand.Rand
}

// NewTemplateGenerator creates a new TemplateGenerator with the given seed.
func NewTemplateGenerator(seed int64) *TemplateGenerator {
	return &TemplateGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how templates are generated.
type GeneratorConfig struct {
	// Variables is the number of strategy variables.
	Variables int
	// MaxDepth bounds the nesting of generated expressions.
	MaxDepth int
	// MaxShift is the largest bar shift a reference may use.
	MaxShift int
	// Indicators are the templates generated calls may invoke.
	Indicators []*template.IndicatorTemplate
	// ForwardReferences allows a variable to reference any variable, which may create cycles.
	ForwardReferences bool
	// Signals is the number of entry and of exit signals.
	Signals int
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Variables: 6,
		MaxDepth:  3,
		MaxShift:  3,
		Signals:   2,
	}
}

// Strategy generates one strategy.
func (g *TemplateGenerator) Strategy(config GeneratorConfig) *template.StrategyTemplate {
	tpl := &template.StrategyTemplate{
		Name:     fmt.Sprintf("generated_%d", g.rng.Intn(1_000_000)),
		Settings: template.DefaultSettings(),
	}

	for i := 0; i < config.Variables; i++ {
		visible := i
		if config.ForwardReferences {
			visible = config.Variables
		}

		tpl.Variables = append(tpl.Variables, template.Define(
			fmt.Sprintf("v%d", i),
			g.expression(config, visible, config.MaxDepth),
		))
	}

	for i := 0; i < config.Signals; i++ {
		side := template.SideLong
		if g.rng.Intn(2) == 0 {
			side = template.SideShort
		}

		tpl.Entries = append(tpl.Entries, template.Signal{
			Name:      fmt.Sprintf("entry_%d", i),
			Side:      side,
			Condition: g.condition(config, config.Variables, 2),
		})
		tpl.Exits = append(tpl.Exits, template.Signal{
			Name:      fmt.Sprintf("exit_%d", i),
			Side:      side,
			Condition: g.condition(config, config.Variables, 2),
		})
	}

	return tpl
}

func (g *TemplateGenerator) expression(config GeneratorConfig, visible, depth int) template.Expression {
	if depth <= 0 {
		return g.leaf(config, visible)
	}

	switch g.rng.Intn(6) {
	case 0:
		ops := []template.BinaryOperator{
			template.BinaryAdd, template.BinarySub, template.BinaryMul,
			template.BinaryDiv, template.BinaryMax, template.BinaryMin,
		}

		return template.BinaryOp{
			Op:    ops[g.rng.Intn(len(ops))],
			Left:  g.expression(config, visible, depth-1),
			Right: g.expression(config, visible, depth-1),
		}
	case 1:
		if g.rng.Intn(2) == 0 {
			return template.Abs(g.expression(config, visible, depth-1))
		}

		return template.Neg(g.expression(config, visible, depth-1))
	case 2:
		return template.If(
			g.condition(config, visible, depth-1),
			g.expression(config, visible, depth-1),
			g.expression(config, visible, depth-1),
		)
	case 3:
		methods := template.AggregationMethods

		return template.Agg(methods[g.rng.Intn(len(methods))], g.series(config, visible), template.Num(float64(2+g.rng.Intn(20))))
	case 4:
		if call := g.call(config); call != nil {
			return call
		}

		return g.leaf(config, visible)
	default:
		return g.leaf(config, visible)
	}
}

func (g *TemplateGenerator) leaf(config GeneratorConfig, visible int) template.Expression {
	switch g.rng.Intn(3) {
	case 0:
		return template.Num(float64(g.rng.Intn(100)))
	default:
		return g.series(config, visible)
	}
}

// series returns a price or variable reference, possibly shifted.
func (g *TemplateGenerator) series(config GeneratorConfig, visible int) template.Expression {
	shift := 0
	if config.MaxShift > 0 {
		shift = g.rng.Intn(config.MaxShift + 1)
	}

	if visible > 0 && g.rng.Intn(2) == 0 {
		name := fmt.Sprintf("v%d", g.rng.Intn(visible))
		if shift == 0 {
			return template.Var(name)
		}

		return template.VarAt(name, shift, 0)
	}

	series := template.PriceSeriesList[g.rng.Intn(len(template.PriceSeriesList))]
	if shift == 0 {
		return template.Price(series)
	}

	return template.PriceRef{
		Series:   series,
		Shift:    optional.Some(template.Num(float64(shift))),
		Fallback: optional.Some(template.Price(series)),
	}
}

// call invokes a random indicator with its required numbers bound and, for
// aggregation parameters, a random selectable method.
func (g *TemplateGenerator) call(config GeneratorConfig) template.Expression {
	if len(config.Indicators) == 0 {
		return nil
	}

	tpl := config.Indicators[g.rng.Intn(len(config.Indicators))]
	ref := template.IndicatorRef{Name: tpl.Name, Line: tpl.Lines[g.rng.Intn(len(tpl.Lines))]}

	for _, p := range tpl.Params {
		switch {
		case p.Kind == template.ParamNumber && (p.Required || g.rng.Intn(2) == 0):
			ref.Params = append(ref.Params, template.NumParam(p.Name, template.Num(float64(2+g.rng.Intn(30)))))
		case p.Kind == template.ParamAggregation && len(p.Options) > 0 && g.rng.Intn(2) == 0:
			ref.Params = append(ref.Params, template.MethodParam(p.Name, p.Options[g.rng.Intn(len(p.Options))]))
		case p.Kind == template.ParamSource && g.rng.Intn(3) == 0:
			series := template.PriceSeriesList[g.rng.Intn(len(template.PriceSeriesList))]
			ref.Params = append(ref.Params, template.SrcParam(p.Name, template.Price(series)))
		}
	}

	return ref
}

func (g *TemplateGenerator) condition(config GeneratorConfig, visible, depth int) template.Condition {
	ops := []template.CompareOp{
		template.CompareGT, template.CompareGE, template.CompareLT,
		template.CompareLE, template.CompareEQ, template.CompareNE,
	}

	choice := g.rng.Intn(4)
	if depth <= 0 {
		choice = 0
	}

	switch choice {
	case 1:
		if g.rng.Intn(2) == 0 {
			return template.CrossesOver(g.series(config, visible), g.series(config, visible))
		}

		return template.CrossesUnder(g.series(config, visible), g.series(config, visible))
	case 2:
		return template.Rising(g.series(config, visible), 1+g.rng.Intn(3))
	case 3:
		return template.All(
			g.condition(config, visible, depth-1),
			g.condition(config, visible, depth-1),
		)
	default:
		return template.Comparison{
			Op:    ops[g.rng.Intn(len(ops))],
			Left:  g.expression(config, visible, depth-1),
			Right: g.expression(config, visible, depth-1),
		}
	}
}
