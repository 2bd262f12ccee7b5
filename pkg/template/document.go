package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Documents describe templates as JSON or YAML. Expressions and conditions are objects
// discriminated by a "kind" field; a bare number is a constant expression.

type strategyDocument struct {
	Name            string             `json:"name"`
	RequiredVersion string             `json:"required_version"`
	Variables       []variableDocument `json:"variables"`
	Entries         []signalDocument   `json:"entries"`
	Exits           []signalDocument   `json:"exits"`
	Settings        json.RawMessage    `json:"settings"`
}

type indicatorDocument struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Params      []paramDocument    `json:"params"`
	Lines       []string           `json:"lines"`
	Variables   []variableDocument `json:"variables"`
	Exports     []exportDocument   `json:"exports"`
}

type paramDocument struct {
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Required    bool            `json:"required"`
	Default     json.RawMessage `json:"default"`
	Options     []string        `json:"options"`
	Description string          `json:"description"`
}

type exportDocument struct {
	Line     string `json:"line"`
	Variable string `json:"variable"`
}

type variableDocument struct {
	Name          string            `json:"name"`
	Expression    json.RawMessage   `json:"expression"`
	InvalidPeriod json.RawMessage   `json:"invalid_period"`
	Fallback      *variableDocument `json:"fallback"`
	Timeframe     json.RawMessage   `json:"timeframe"`
}

type signalDocument struct {
	Name      string          `json:"name"`
	Side      string          `json:"side"`
	Condition json.RawMessage `json:"condition"`
}

type bindingDocument struct {
	Name   string          `json:"name"`
	Number json.RawMessage `json:"number"`
	Source json.RawMessage `json:"source"`
	Method string          `json:"method"`
}

type nodeDocument struct {
	Kind string `json:"kind"`

	Value  *float64 `json:"value"`
	Name   string   `json:"name"`
	Mode   string   `json:"mode"`
	Series string   `json:"series"`
	Line   string   `json:"line"`

	Shift     json.RawMessage `json:"shift"`
	Fallback  json.RawMessage `json:"fallback"`
	Timeframe json.RawMessage `json:"timeframe"`

	Params      []bindingDocument `json:"params"`
	Method      string            `json:"method"`
	MethodParam string            `json:"method_param"`
	Source      json.RawMessage   `json:"source"`
	Period      json.RawMessage   `json:"period"`

	Op        string          `json:"op"`
	Operand   json.RawMessage `json:"operand"`
	Left      json.RawMessage `json:"left"`
	Right     json.RawMessage `json:"right"`
	Condition json.RawMessage `json:"condition"`
	Then      json.RawMessage `json:"then"`
	Else      json.RawMessage `json:"else"`

	Direction        string            `json:"direction"`
	State            string            `json:"state"`
	Bars             int               `json:"bars"`
	To               string            `json:"to"`
	Persist          *bool             `json:"persist"`
	Inner            json.RawMessage   `json:"inner"`
	PreconditionBars int               `json:"precondition_bars"`
	ConfirmationBars int               `json:"confirmation_bars"`
	Conditions       []json.RawMessage `json:"conditions"`
}

type timeframeDocument struct {
	Higher   int             `json:"higher"`
	Of       json.RawMessage `json:"of"`
	Variable string          `json:"variable"`
}

// DecodeStrategy decodes a JSON strategy document.
func DecodeStrategy(data []byte) (*StrategyTemplate, error) {
	var doc strategyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDocumentParseFailed, "failed to parse strategy document", err)
	}

	tpl := &StrategyTemplate{
		Name:            doc.Name,
		RequiredVersion: doc.RequiredVersion,
		Settings:        DefaultSettings(),
	}

	if len(doc.Settings) > 0 {
		if err := json.Unmarshal(doc.Settings, &tpl.Settings); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDocumentParseFailed, "failed to parse strategy settings", err)
		}
	}

	for i, v := range doc.Variables {
		def, err := decodeVariable(v, fmt.Sprintf("variables[%d]", i))
		if err != nil {
			return nil, err
		}

		tpl.Variables = append(tpl.Variables, def)
	}

	var err error

	if tpl.Entries, err = decodeSignals(doc.Entries, "entries"); err != nil {
		return nil, err
	}

	if tpl.Exits, err = decodeSignals(doc.Exits, "exits"); err != nil {
		return nil, err
	}

	return tpl, nil
}

// DecodeIndicator decodes a JSON indicator document.
func DecodeIndicator(data []byte) (*IndicatorTemplate, error) {
	var doc indicatorDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDocumentParseFailed, "failed to parse indicator document", err)
	}

	tpl := &IndicatorTemplate{
		Name:        doc.Name,
		Description: doc.Description,
		Lines:       doc.Lines,
	}

	for i, p := range doc.Params {
		decl, err := decodeParam(p, fmt.Sprintf("params[%d]", i))
		if err != nil {
			return nil, err
		}

		tpl.Params = append(tpl.Params, decl)
	}

	for i, v := range doc.Variables {
		def, err := decodeVariable(v, fmt.Sprintf("variables[%d]", i))
		if err != nil {
			return nil, err
		}

		tpl.Variables = append(tpl.Variables, def)
	}

	for _, e := range doc.Exports {
		tpl.Exports = append(tpl.Exports, Export(e))
	}

	return tpl, nil
}

// LoadStrategyFile reads a strategy document. Files ending in .yaml or .yml are YAML,
// anything else is JSON.
func LoadStrategyFile(path string) (*StrategyTemplate, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	return DecodeStrategy(data)
}

// LoadIndicatorFile reads an indicator document.
func LoadIndicatorFile(path string) (*IndicatorTemplate, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	return DecodeIndicator(data)
}

// IsDocumentFile reports whether path has a supported document extension.
func IsDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "failed to read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLToJSON(data)
	default:
		return data, nil
	}
}

// YAMLToJSON converts a YAML document to its JSON equivalent.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDocumentParseFailed, "failed to parse yaml document", err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDocumentParseFailed, "failed to convert yaml document", err)
	}

	return out, nil
}

func decodeSignals(docs []signalDocument, path string) ([]Signal, error) {
	var out []Signal

	for i, s := range docs {
		p := fmt.Sprintf("%s[%d]", path, i)

		side := Side(s.Side)
		if side != SideLong && side != SideShort {
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: side must be long or short, got %q", p, s.Side)
		}

		cond, err := decodeCondition(s.Condition, p+".condition")
		if err != nil {
			return nil, err
		}

		out = append(out, Signal{Name: s.Name, Side: side, Condition: cond})
	}

	return out, nil
}

func decodeParam(p paramDocument, path string) (ParamDecl, error) {
	decl := ParamDecl{
		Name:        p.Name,
		Kind:        ParamKind(p.Kind),
		Required:    p.Required,
		Description: p.Description,
	}

	for _, o := range p.Options {
		m, err := ParseAggregationMethod(o)
		if err != nil {
			return ParamDecl{}, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s.options", path)
		}

		decl.Options = append(decl.Options, m)
	}

	if isAbsent(p.Default) {
		switch decl.Kind {
		case ParamNumber, ParamSource, ParamAggregation:
			return decl, nil
		default:
			return ParamDecl{}, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown parameter kind %q", path, p.Kind)
		}
	}

	switch decl.Kind {
	case ParamNumber:
		v, err := decodeExpression(p.Default, path+".default")
		if err != nil {
			return ParamDecl{}, err
		}

		decl.Default = optional.Some[Argument](NumberArg{Value: v})
	case ParamSource:
		v, err := decodeExpression(p.Default, path+".default")
		if err != nil {
			return ParamDecl{}, err
		}

		decl.Default = optional.Some[Argument](SourceArg{Value: v})
	case ParamAggregation:
		var name string
		if err := json.Unmarshal(p.Default, &name); err != nil {
			return ParamDecl{}, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s.default", path)
		}

		m, err := ParseAggregationMethod(name)
		if err != nil {
			return ParamDecl{}, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s.default", path)
		}

		decl.Default = optional.Some[Argument](MethodArg{Method: m})
	default:
		return ParamDecl{}, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown parameter kind %q", path, p.Kind)
	}

	return decl, nil
}

func decodeVariable(v variableDocument, path string) (VariableDefinition, error) {
	def := VariableDefinition{Name: v.Name}

	expr, err := decodeExpression(v.Expression, path+".expression")
	if err != nil {
		return VariableDefinition{}, err
	}

	def.Expression = expr

	if def.InvalidPeriod, err = decodeOptional(v.InvalidPeriod, path+".invalid_period"); err != nil {
		return VariableDefinition{}, err
	}

	if v.Fallback != nil {
		fb, err := decodeVariable(*v.Fallback, path+".fallback")
		if err != nil {
			return VariableDefinition{}, err
		}

		def.Fallback = &fb
	}

	if def.Timeframe, err = decodeTimeframe(v.Timeframe, path+".timeframe"); err != nil {
		return VariableDefinition{}, err
	}

	return def, nil
}

func decodeOptional(raw json.RawMessage, path string) (optional.Option[Expression], error) {
	if isAbsent(raw) {
		return nil, nil
	}

	expr, err := decodeExpression(raw, path)
	if err != nil {
		return nil, err
	}

	return optional.Some(expr), nil
}

func decodeExpression(raw json.RawMessage, path string) (Expression, error) {
	if isAbsent(raw) {
		return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: expression is required", path)
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return Constant{Value: number}, nil
	}

	var n nodeDocument
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s: invalid expression", path)
	}

	switch n.Kind {
	case "constant":
		if n.Value == nil {
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: constant requires a value", path)
		}

		return Constant{Value: *n.Value}, nil
	case "param":
		return ParamRef{Name: n.Name}, nil
	case "source":
		return SourceRef{Name: n.Name}, nil
	case "variable":
		ref := VariableRef{Name: n.Name, Kind: ValueScalar}
		if n.Mode == string(ValueArray) || !isAbsent(n.Shift) {
			ref.Kind = ValueArray
		}

		var err error
		if ref.Shift, err = decodeOptional(n.Shift, path+".shift"); err != nil {
			return nil, err
		}

		if ref.Fallback, err = decodeOptional(n.Fallback, path+".fallback"); err != nil {
			return nil, err
		}

		if ref.Timeframe, err = decodeTimeframe(n.Timeframe, path+".timeframe"); err != nil {
			return nil, err
		}

		return ref, nil
	case "price":
		series, err := ParsePriceSeries(n.Series)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s", path)
		}

		ref := PriceRef{Series: series}
		if ref.Shift, err = decodeOptional(n.Shift, path+".shift"); err != nil {
			return nil, err
		}

		if ref.Fallback, err = decodeOptional(n.Fallback, path+".fallback"); err != nil {
			return nil, err
		}

		if ref.Timeframe, err = decodeTimeframe(n.Timeframe, path+".timeframe"); err != nil {
			return nil, err
		}

		return ref, nil
	case "indicator":
		ref := IndicatorRef{Name: n.Name, Line: n.Line}

		for i, b := range n.Params {
			binding, err := decodeBinding(b, fmt.Sprintf("%s.params[%d]", path, i))
			if err != nil {
				return nil, err
			}

			ref.Params = append(ref.Params, binding)
		}

		return ref, nil
	case "aggregation":
		return decodeAggregation(n, path)
	case "unary":
		operand, err := decodeExpression(n.Operand, path+".operand")
		if err != nil {
			return nil, err
		}

		switch UnaryOperator(n.Op) {
		case UnaryNeg, UnaryAbs:
			return UnaryOp{Op: UnaryOperator(n.Op), Operand: operand}, nil
		default:
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown unary operator %q", path, n.Op)
		}
	case "binary":
		left, err := decodeExpression(n.Left, path+".left")
		if err != nil {
			return nil, err
		}

		right, err := decodeExpression(n.Right, path+".right")
		if err != nil {
			return nil, err
		}

		switch BinaryOperator(n.Op) {
		case BinaryAdd, BinarySub, BinaryMul, BinaryDiv, BinaryMax, BinaryMin:
			return BinaryOp{Op: BinaryOperator(n.Op), Left: left, Right: right}, nil
		default:
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown binary operator %q", path, n.Op)
		}
	case "ternary":
		cond, err := decodeCondition(n.Condition, path+".condition")
		if err != nil {
			return nil, err
		}

		then, err := decodeExpression(n.Then, path+".then")
		if err != nil {
			return nil, err
		}

		otherwise, err := decodeExpression(n.Else, path+".else")
		if err != nil {
			return nil, err
		}

		return Ternary{Condition: cond, Then: then, Else: otherwise}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown expression kind %q", path, n.Kind)
	}
}

func decodeAggregation(n nodeDocument, path string) (Expression, error) {
	agg := Aggregation{}

	switch {
	case n.Method != "" && n.MethodParam != "":
		return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: method and method_param are exclusive", path)
	case n.MethodParam != "":
		agg.Method = MethodSpec{Param: n.MethodParam}
	default:
		m, err := ParseAggregationMethod(n.Method)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s", path)
		}

		agg.Method = MethodSpec{Method: m}
	}

	var err error
	if agg.Source, err = decodeExpression(n.Source, path+".source"); err != nil {
		return nil, err
	}

	if agg.Period, err = decodeExpression(n.Period, path+".period"); err != nil {
		return nil, err
	}

	if agg.Fallback, err = decodeOptional(n.Fallback, path+".fallback"); err != nil {
		return nil, err
	}

	return agg, nil
}

func decodeBinding(b bindingDocument, path string) (ParamBinding, error) {
	set := 0
	for _, present := range []bool{!isAbsent(b.Number), !isAbsent(b.Source), b.Method != ""} {
		if present {
			set++
		}
	}

	if set != 1 {
		return ParamBinding{}, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: exactly one of number, source or method is required", path)
	}

	switch {
	case !isAbsent(b.Number):
		v, err := decodeExpression(b.Number, path+".number")
		if err != nil {
			return ParamBinding{}, err
		}

		return ParamBinding{Name: b.Name, Value: NumberArg{Value: v}}, nil
	case !isAbsent(b.Source):
		v, err := decodeExpression(b.Source, path+".source")
		if err != nil {
			return ParamBinding{}, err
		}

		return ParamBinding{Name: b.Name, Value: SourceArg{Value: v}}, nil
	default:
		// method names are checked by the analyzer against the parameter's options
		return ParamBinding{Name: b.Name, Value: MethodArg{Method: AggregationMethod(b.Method)}}, nil
	}
}

func decodeCondition(raw json.RawMessage, path string) (Condition, error) {
	if isAbsent(raw) {
		return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: condition is required", path)
	}

	var n nodeDocument
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s: invalid condition", path)
	}

	switch n.Kind {
	case "compare":
		left, err := decodeExpression(n.Left, path+".left")
		if err != nil {
			return nil, err
		}

		right, err := decodeExpression(n.Right, path+".right")
		if err != nil {
			return nil, err
		}

		switch CompareOp(n.Op) {
		case CompareGT, CompareGE, CompareLT, CompareLE, CompareEQ, CompareNE:
			return Comparison{Op: CompareOp(n.Op), Left: left, Right: right}, nil
		default:
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown comparison %q", path, n.Op)
		}
	case "cross":
		left, err := decodeExpression(n.Left, path+".left")
		if err != nil {
			return nil, err
		}

		right, err := decodeExpression(n.Right, path+".right")
		if err != nil {
			return nil, err
		}

		dir := CrossDirection(n.Direction)
		if dir != CrossOver && dir != CrossUnder {
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown cross direction %q", path, n.Direction)
		}

		return Cross{Direction: dir, Left: left, Right: right}, nil
	case "state":
		operand, err := decodeExpression(n.Operand, path+".operand")
		if err != nil {
			return nil, err
		}

		kind := StateKind(n.State)
		if kind != StateRising && kind != StateFalling {
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown state %q", path, n.State)
		}

		return State{Kind: kind, Operand: operand, Bars: n.Bars}, nil
	case "change":
		inner, err := decodeCondition(n.Inner, path+".inner")
		if err != nil {
			return nil, err
		}

		to := ChangeKind(n.To)
		if to != ChangeToTrue && to != ChangeToFalse {
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: change target must be to_true or to_false, got %q", path, n.To)
		}

		return Change{To: to, Inner: inner, PreconditionBars: n.PreconditionBars, ConfirmationBars: n.ConfirmationBars}, nil
	case "continue":
		inner, err := decodeCondition(n.Inner, path+".inner")
		if err != nil {
			return nil, err
		}

		persist := true
		if n.Persist != nil {
			persist = *n.Persist
		}

		return Continue{Persist: persist, Inner: inner, Bars: n.Bars}, nil
	case "group":
		op := GroupOp(n.Op)
		if op != GroupAnd && op != GroupOr {
			return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown group operator %q", path, n.Op)
		}

		group := Group{Op: op}

		for i, raw := range n.Conditions {
			sub, err := decodeCondition(raw, fmt.Sprintf("%s.conditions[%d]", path, i))
			if err != nil {
				return nil, err
			}

			group.Conditions = append(group.Conditions, sub)
		}

		return group, nil
	default:
		return nil, errors.Newf(errors.ErrCodeDocumentParseFailed, "%s: unknown condition kind %q", path, n.Kind)
	}
}

func decodeTimeframe(raw json.RawMessage, path string) (TimeframeExpr, error) {
	if isAbsent(raw) {
		return nil, nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		tf, err := ParseTimeframe(name)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s", path)
		}

		return FixedTimeframe{Timeframe: tf}, nil
	}

	var doc timeframeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentParseFailed, err, "%s: invalid timeframe", path)
	}

	if doc.Variable != "" {
		return VariableTimeframe{Variable: doc.Variable}, nil
	}

	of, err := decodeTimeframe(doc.Of, path+".of")
	if err != nil {
		return nil, err
	}

	return HigherTimeframe{Steps: doc.Higher, Of: of}, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)

	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
