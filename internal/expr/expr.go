// Package expr defines Tinqer's Expression tagged union: the value,
// boolean, object, and aggregate forms a lambda body converts into
// before the SQL generator walks them. Every node type implements
// Expression and is discriminated at emission sites with a type
// switch in place of runtime reflection.
package expr

// Expression is implemented by every node kind in the tree. The method
// is unexported so only this package can mint new variants, keeping
// the tagged union closed.
type Expression interface {
	exprNode()
}

// ComparisonOp enumerates the comparison operators a Comparison node
// may carry.
type ComparisonOp string

const (
	Eq  ComparisonOp = "=="
	Neq ComparisonOp = "!="
	Gt  ComparisonOp = ">"
	Gte ComparisonOp = ">="
	Lt  ComparisonOp = "<"
	Lte ComparisonOp = "<="
)

// LogicalOp enumerates the short-circuit combinators a Logical node
// may carry.
type LogicalOp string

const (
	And LogicalOp = "and"
	Or  LogicalOp = "or"
)

// ArithmeticOp enumerates the numeric operators an Arithmetic node may
// carry.
type ArithmeticOp string

const (
	Add ArithmeticOp = "+"
	Sub ArithmeticOp = "-"
	Mul ArithmeticOp = "*"
	Div ArithmeticOp = "/"
	Mod ArithmeticOp = "%"
)

// ValueType classifies a Constant node's Go value for emission
// purposes (e.g. deciding whether NULL literals stay inline).
type ValueType string

const (
	TypeNumber    ValueType = "number"
	TypeString    ValueType = "string"
	TypeBoolean   ValueType = "boolean"
	TypeNull      ValueType = "null"
	TypeUndefined ValueType = "undefined"
)

// AggregateFunc enumerates the grouping-parameter aggregate methods.
type AggregateFunc string

const (
	AggCount AggregateFunc = "count"
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// StringMethodName enumerates the unary string-transform methods.
type StringMethodName string

const (
	ToLowerCase StringMethodName = "toLowerCase"
	ToUpperCase StringMethodName = "toUpperCase"
)

// BooleanMethodName enumerates the LIKE-backed predicate methods.
type BooleanMethodName string

const (
	StartsWith BooleanMethodName = "startsWith"
	EndsWith   BooleanMethodName = "endsWith"
	Includes   BooleanMethodName = "includes"
	Contains   BooleanMethodName = "contains"
)

// Column is a row-field access, row.name, optionally qualified by a
// join table alias.
type Column struct {
	Name  string
	Table string // row's alias (t0, t1, ...); empty for update/delete rows; the emitter qualifies with it only when the query has joins
}

func (Column) exprNode() {}

// Constant is a literal kept inline. Only Null stays inline after
// auto-parameter extraction; every other literal is replaced by a
// Param before the tree reaches the generator.
type Constant struct {
	Value     any
	ValueType ValueType
}

func (Constant) exprNode() {}

// Param references a named input parameter, optionally a property of
// it and/or an array index into that property.
type Param struct {
	Name     string
	Property string // empty when the param itself is the scalar value
	HasIndex bool
	Index    int
}

func (Param) exprNode() {}

// Comparison is `Left Operator Right`. A Right of Constant{ValueType:
// TypeNull} is rewritten to IS NULL / IS NOT NULL during emission.
type Comparison struct {
	Operator ComparisonOp
	Left     Expression
	Right    Expression
}

func (Comparison) exprNode() {}

// Logical is a short-circuit `&&`/`||` combination of two boolean
// expressions.
type Logical struct {
	Operator LogicalOp
	Left     Expression
	Right    Expression
}

func (Logical) exprNode() {}

// Not is a boolean negation, `!expr`.
type Not struct {
	Expression Expression
}

func (Not) exprNode() {}

// Arithmetic is a numeric binary operation.
type Arithmetic struct {
	Operator ArithmeticOp
	Left     Expression
	Right    Expression
}

func (Arithmetic) exprNode() {}

// Concat is string `+`, kept distinct from Arithmetic so the emitter
// can always render it as `||` regardless of dialect.
type Concat struct {
	Left  Expression
	Right Expression
}

func (Concat) exprNode() {}

// StringMethod is a unary string transform (toLowerCase/toUpperCase).
type StringMethod struct {
	Object Expression
	Method StringMethodName
}

func (StringMethod) exprNode() {}

// BooleanMethod is a LIKE-backed predicate method call. Arguments
// holds the method's call arguments (already-converted expressions);
// every enumerated BooleanMethodName takes exactly one.
type BooleanMethod struct {
	Object    Expression
	Method    BooleanMethodName
	Arguments []Expression
}

func (BooleanMethod) exprNode() {}

// Aggregate is a post-group aggregate call (g.count(), g.sum(sel), ...).
// Expression is nil for count().
type Aggregate struct {
	Function   AggregateFunc
	Expression Expression
}

func (Aggregate) exprNode() {}

// Conditional is a ternary, `cond ? then : else`.
type Conditional struct {
	Condition Expression
	Then      Expression
	Else      Expression
}

func (Conditional) exprNode() {}

// Coalesce is `??` (and the non-boolean form of `||`) over two or more
// candidate expressions.
type Coalesce struct {
	Expressions []Expression
}

func (Coalesce) exprNode() {}

// In is a membership test against an array literal or a parameter
// holding a list.
type In struct {
	Value Expression
	List  Expression // Array or Param
}

func (In) exprNode() {}

// Array is an array literal.
type Array struct {
	Elements []Expression
}

func (Array) exprNode() {}

// Object is a projection shape: an ordered set of named expressions.
// Names preserves declaration order since map iteration order is not
// stable and SELECT column order is observable.
type Object struct {
	Names       []string
	Expressions map[string]Expression
}

func (Object) exprNode() {}

// NewObject builds an Object preserving the given name order.
func NewObject(names []string, exprs map[string]Expression) Object {
	return Object{Names: names, Expressions: exprs}
}
