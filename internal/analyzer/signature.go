package analyzer

import (
	"slices"
	"strings"

	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// Signature returns the canonical key of an indicator call together with its
// resolved arguments. Arguments are sorted by parameter name, unbound parameters
// take their declared default and number arguments are constant-folded, so calls
// that differ only in argument order or spelling of a constant share a key.
// With a nil template the call's own bindings are used as given.
func Signature(tpl *template.IndicatorTemplate, call template.IndicatorRef) (string, []Argument) {
	bound := map[string]template.Argument{}
	for _, p := range call.Params {
		if _, dup := bound[p.Name]; !dup {
			bound[p.Name] = p.Value
		}
	}

	var args []Argument

	if tpl == nil {
		for name, value := range bound {
			if value == nil {
				args = append(args, Argument{Name: name})

				continue
			}

			args = append(args, Argument{Name: name, Kind: value.Kind(), Value: fold(value)})
		}
	} else {
		for _, decl := range tpl.Params {
			value, ok := bound[decl.Name]
			if !ok {
				if decl.Default.IsNone() {
					continue
				}

				value = decl.Default.Unwrap()
			}

			args = append(args, Argument{Name: decl.Name, Kind: decl.Kind, Value: fold(value)})
		}
	}

	slices.SortFunc(args, func(a, b Argument) int {
		return strings.Compare(a.Name, b.Name)
	})

	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.Name+"="+template.FormatArgument(a.Value))
	}

	return call.Name + "(" + strings.Join(parts, ",") + ")", args
}

func fold(arg template.Argument) template.Argument {
	if n, ok := arg.(template.NumberArg); ok {
		if v, ok := template.EvalConstant(n.Value); ok {
			return template.NumberArg{Value: template.Num(v)}
		}
	}

	return arg
}
