// Package backtrader lowers programs into a backtrader strategy module and a
// driver script.
package backtrader

// Expr is a Python expression.
type Expr interface {
	pyExpr()
}

type Name struct {
	ID string
}

type Num struct {
	Value float64
}

type Int struct {
	Value int
}

type Str struct {
	Value string
}

type Bool struct {
	Value bool
}

type NoneLit struct{}

type Attr struct {
	Value Expr
	Name  string
}

type Keyword struct {
	Name  string
	Value Expr
}

type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

type Subscript struct {
	Value Expr
	Index Expr
}

// BinOp covers arithmetic and comparison operators.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

// BoolOp joins values with and/or.
type BoolOp struct {
	Op     string
	Values []Expr
}

type UnaryOp struct {
	Op      string
	Operand Expr
}

// IfExp is the conditional expression a if c else b.
type IfExp struct {
	Cond Expr
	Then Expr
	Else Expr
}

type Tuple struct {
	Elts []Expr
}

func (Name) pyExpr()      {}
func (Num) pyExpr()       {}
func (Int) pyExpr()       {}
func (Str) pyExpr()       {}
func (Bool) pyExpr()      {}
func (NoneLit) pyExpr()   {}
func (Attr) pyExpr()      {}
func (Call) pyExpr()      {}
func (Subscript) pyExpr() {}
func (BinOp) pyExpr()     {}
func (BoolOp) pyExpr()    {}
func (UnaryOp) pyExpr()   {}
func (IfExp) pyExpr()     {}
func (Tuple) pyExpr()     {}

// Stmt is a Python statement.
type Stmt interface {
	pyStmt()
}

type Assign struct {
	Target Expr
	Value  Expr
}

type ExprStmt struct {
	Expr Expr
}

type Return struct {
	Value Expr
}

type If struct {
	Cond Expr
	Body []Stmt
	Else []Stmt
}

type For struct {
	Target Expr
	Iter   Expr
	Body   []Stmt
}

type Pass struct{}

type Comment struct {
	Text string
}

type Import struct {
	Module string
	Alias  string
}

type FromImport struct {
	Module string
	Names  []string
}

type FunctionDef struct {
	Name string
	Args []string
	Body []Stmt
	Doc  string
}

type ClassDef struct {
	Name  string
	Bases []Expr
	Doc   string
	Body  []Stmt
}

// Blank separates top-level sections.
type Blank struct{}

func (Assign) pyStmt()      {}
func (ExprStmt) pyStmt()    {}
func (Return) pyStmt()      {}
func (If) pyStmt()          {}
func (For) pyStmt()         {}
func (Pass) pyStmt()        {}
func (Comment) pyStmt()     {}
func (Import) pyStmt()      {}
func (FromImport) pyStmt()  {}
func (FunctionDef) pyStmt() {}
func (ClassDef) pyStmt()    {}
func (Blank) pyStmt()       {}

// Module is one Python source file.
type Module struct {
	Doc  string
	Body []Stmt
}
