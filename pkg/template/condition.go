package template

// Condition is a boolean predicate evaluated on a bar.
type Condition interface {
	condition()
}

// CompareOp is a comparison operator.
type CompareOp string

const (
	CompareGT CompareOp = ">"
	CompareGE CompareOp = ">="
	CompareLT CompareOp = "<"
	CompareLE CompareOp = "<="
	CompareEQ CompareOp = "=="
	CompareNE CompareOp = "!="
)

// Comparison compares two expressions on the current bar.
type Comparison struct {
	Op    CompareOp
	Left  Expression
	Right Expression
}

// CrossDirection selects which way a cross is detected.
type CrossDirection string

const (
	CrossOver  CrossDirection = "over"
	CrossUnder CrossDirection = "under"
)

// Cross holds when Left crosses Right on the current bar.
type Cross struct {
	Direction CrossDirection
	Left      Expression
	Right     Expression
}

// StateKind selects the direction of a State condition.
type StateKind string

const (
	StateRising  StateKind = "rising"
	StateFalling StateKind = "falling"
)

// State holds when Operand has moved in one direction for Bars consecutive bars.
type State struct {
	Kind    StateKind
	Operand Expression
	Bars    int
}

// ChangeKind selects the transition a Change condition detects.
type ChangeKind string

const (
	ChangeToTrue  ChangeKind = "to_true"
	ChangeToFalse ChangeKind = "to_false"
)

// Change holds when Inner flipped: it had the opposite value for PreconditionBars
// bars and has held the new value for the latest ConfirmationBars bars.
type Change struct {
	To               ChangeKind
	Inner            Condition
	PreconditionBars int
	ConfirmationBars int
}

// Continue holds when Inner has equaled Persist for Bars consecutive bars.
type Continue struct {
	Persist bool
	Inner   Condition
	Bars    int
}

// GroupOp combines sub-conditions.
type GroupOp string

const (
	GroupAnd GroupOp = "and"
	GroupOr  GroupOp = "or"
)

// Group combines sub-conditions with and/or.
type Group struct {
	Op         GroupOp
	Conditions []Condition
}

func (Comparison) condition() {}
func (Cross) condition()      {}
func (State) condition()      {}
func (Change) condition()     {}
func (Continue) condition()   {}
func (Group) condition()      {}

// TimeframeExpr selects the timeframe a reference is evaluated on.
type TimeframeExpr interface {
	timeframeExpr()
}

// FixedTimeframe names a concrete timeframe.
type FixedTimeframe struct {
	Timeframe Timeframe
}

// HigherTimeframe is Steps timeframes above Of. A nil Of means the base timeframe.
type HigherTimeframe struct {
	Steps int
	Of    TimeframeExpr
}

// VariableTimeframe uses the timeframe of another variable's definition.
type VariableTimeframe struct {
	Variable string
}

func (FixedTimeframe) timeframeExpr()    {}
func (HigherTimeframe) timeframeExpr()   {}
func (VariableTimeframe) timeframeExpr() {}
