package mocks

import (
	"testing"

	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/stretchr/testify/suite"
)

type TemplateGeneratorTestSuite struct {
	suite.Suite
}

func TestTemplateGeneratorSuite(t *testing.T) {
	suite.Run(t, new(TemplateGeneratorTestSuite))
}

func (suite *TemplateGeneratorTestSuite) TestReproducible() {
	a := NewTemplateGenerator(7).Strategy(DefaultConfig())
	b := NewTemplateGenerator(7).Strategy(DefaultConfig())

	suite.Equal(a, b)
}

func (suite *TemplateGeneratorTestSuite) TestShape() {
	config := DefaultConfig()
	tpl := NewTemplateGenerator(1).Strategy(config)

	suite.Len(tpl.Variables, config.Variables)
	suite.Len(tpl.Entries, config.Signals)
	suite.Len(tpl.Exits, config.Signals)
}

func (suite *TemplateGeneratorTestSuite) TestOnlyBackwardReferences() {
	config := DefaultConfig()
	config.Variables = 12

	for seed := int64(0); seed < 20; seed++ {
		tpl := NewTemplateGenerator(seed).Strategy(config)

		for i, def := range tpl.Variables {
			template.WalkExpression(def.Expression, template.Visitor{
				Expression: func(e template.Expression) bool {
					if ref, ok := e.(template.VariableRef); ok {
						idx := -1
						for j, d := range tpl.Variables {
							if d.Name == ref.Name {
								idx = j
							}
						}

						suite.Less(idx, i, "variable %s references %s", def.Name, ref.Name)
					}

					return true
				},
			})
		}
	}
}
