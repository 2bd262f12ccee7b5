package indicator

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(violations []Violation) []errors.ErrorCode {
	out := make([]errors.ErrorCode, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Code)
	}

	return out
}

func TestCheckTemplate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*template.IndicatorTemplate)
		want   []errors.ErrorCode
	}{
		{
			name:   "valid",
			modify: func(*template.IndicatorTemplate) {},
			want:   []errors.ErrorCode{},
		},
		{
			name: "export references undeclared variable",
			modify: func(tpl *template.IndicatorTemplate) {
				tpl.Exports[0].Variable = "nope"
			},
			want: []errors.ErrorCode{errors.ErrCodeInvalidExport},
		},
		{
			name: "line without export",
			modify: func(tpl *template.IndicatorTemplate) {
				tpl.Lines = append(tpl.Lines, "extra")
			},
			want: []errors.ErrorCode{errors.ErrCodeMissingExport},
		},
		{
			name: "line exported twice",
			modify: func(tpl *template.IndicatorTemplate) {
				tpl.Exports = append(tpl.Exports, tpl.Exports[0])
			},
			want: []errors.ErrorCode{errors.ErrCodeInvalidExport},
		},
		{
			name: "export for undeclared line",
			modify: func(tpl *template.IndicatorTemplate) {
				tpl.Exports = append(tpl.Exports, template.Export{Line: "ghost", Variable: "v"})
			},
			want: []errors.ErrorCode{errors.ErrCodeInvalidExport},
		},
		{
			name: "duplicate variable",
			modify: func(tpl *template.IndicatorTemplate) {
				tpl.Variables = append(tpl.Variables, tpl.Variables[0])
			},
			want: []errors.ErrorCode{errors.ErrCodeDuplicateVariable},
		},
		{
			name: "default of wrong kind",
			modify: func(tpl *template.IndicatorTemplate) {
				tpl.Params[0].Default = optional.Some[template.Argument](template.MethodArg{Method: template.MethodSMA})
			},
			want: []errors.ErrorCode{errors.ErrCodeInvalidParameterDefault},
		},
		{
			name: "default method not selectable",
			modify: func(tpl *template.IndicatorTemplate) {
				tpl.Params = append(tpl.Params, template.ParamDecl{
					Name:    "method",
					Kind:    template.ParamAggregation,
					Default: optional.Some[template.Argument](template.MethodArg{Method: template.MethodMAD}),
					Options: []template.AggregationMethod{template.MethodSMA},
				})
			},
			want: []errors.ErrorCode{errors.ErrCodeInvalidParameterDefault},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := newTestIndicator("test")
			tt.modify(tpl)

			assert.Equal(t, tt.want, codes(CheckTemplate(tpl)))
		})
	}
}

func TestBuiltinsAreValid(t *testing.T) {
	for _, tpl := range Builtins() {
		t.Run(tpl.Name, func(t *testing.T) {
			assert.Empty(t, CheckTemplate(tpl))
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Equal(t, []string{
		"atr", "bollinger_bands", "ema", "macd", MovingAverageName, "rsi", "waddah_attar",
	}, catalog.ListIndicators())

	ma, err := catalog.GetIndicator(MovingAverageName)
	require.NoError(t, err)
	assert.Equal(t, []string{"ma"}, ma.Lines)

	method, ok := ma.Param("method")
	require.True(t, ok)
	assert.Equal(t, template.ParamAggregation, method.Kind)
	assert.Equal(t, template.MethodArg{Method: template.MethodSMA}, method.Default.Unwrap())
}

func TestSelectableMethods(t *testing.T) {
	assert.Equal(t, template.AggregationMethods, SelectableMethods(template.ParamDecl{Kind: template.ParamAggregation}))
	assert.Equal(t, []template.AggregationMethod{template.MethodEMA},
		SelectableMethods(template.ParamDecl{Kind: template.ParamAggregation, Options: []template.AggregationMethod{template.MethodEMA}}))
}
