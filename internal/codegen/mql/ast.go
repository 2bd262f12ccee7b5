// Package mql lowers programs into an MQL5 expert advisor.
package mql

// Expr is an MQL expression.
type Expr interface {
	mqlExpr()
}

type Ident struct {
	Name string
}

type IntLit struct {
	Value int
}

// FloatLit is a double literal; it always renders with a decimal point.
type FloatLit struct {
	Value float64
}

type BoolLit struct {
	Value bool
}

type StringLit struct {
	Value string
}

type Index struct {
	Array Expr
	Index Expr
}

type Call struct {
	Func string
	Args []Expr
}

// MethodCall calls a member function on an object or object pointer.
type MethodCall struct {
	Recv Expr
	Name string
	Args []Expr
}

type Unary struct {
	Op      string
	Operand Expr
}

type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

// Cond is the ?: operator.
type Cond struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Cast converts Operand to Type.
type Cast struct {
	Type    string
	Operand Expr
}

func (Ident) mqlExpr()      {}
func (IntLit) mqlExpr()     {}
func (FloatLit) mqlExpr()   {}
func (BoolLit) mqlExpr()    {}
func (StringLit) mqlExpr()  {}
func (Index) mqlExpr()      {}
func (Call) mqlExpr()       {}
func (MethodCall) mqlExpr() {}
func (Unary) mqlExpr()      {}
func (Binary) mqlExpr()     {}
func (Cond) mqlExpr()       {}
func (Cast) mqlExpr()       {}

// Stmt is an MQL statement.
type Stmt interface {
	mqlStmt()
}

// VarDecl declares a local or member. Array declares a dynamic array.
type VarDecl struct {
	Type  string
	Name  string
	Array bool
	Init  Expr
}

type Assign struct {
	Target Expr
	Op     string
	Value  Expr
}

type ExprStmt struct {
	Expr Expr
}

type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// For is a counting loop over Var from Init while Cond holds, stepping by Post.
type For struct {
	Var  string
	Init Expr
	Cond Expr
	Post string
	Body []Stmt
}

type Return struct {
	Value Expr
}

type Comment struct {
	Text string
}

// Verbatim is a block of fixed library code.
type Verbatim struct {
	Text string
}

func (VarDecl) mqlStmt()  {}
func (Assign) mqlStmt()   {}
func (ExprStmt) mqlStmt() {}
func (If) mqlStmt()       {}
func (For) mqlStmt()      {}
func (Return) mqlStmt()   {}
func (Comment) mqlStmt()  {}
func (Verbatim) mqlStmt() {}

// Param is a function parameter.
type Param struct {
	Type string
	Name string
	// Ref passes by reference; Array implies const reference to a double array.
	Ref   bool
	Array bool
	Const bool
}

type Function struct {
	Return string
	Name   string
	Params []Param
	Body   []Stmt
	// Comment is written above the function.
	Comment string
}

// Member is a field or method of a class.
type Member struct {
	Public bool
	Field  *VarDecl
	Method *Function
	// Constructor marks Method as the class constructor.
	Constructor bool
}

type Class struct {
	Name    string
	Comment string
	Members []Member
}

type Define struct {
	Name  string
	Value Expr
}

type Input struct {
	Type    string
	Name    string
	Value   Expr
	Comment string
}

type Global struct {
	Decl VarDecl
}

// Program is a complete expert advisor source file.
type Program struct {
	Name       string
	Properties []Define
	Includes   []string
	Defines    []Define
	Inputs     []Input
	Globals    []Global
	Classes    []Class
	Functions  []Function
}
