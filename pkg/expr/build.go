package expr

import "github.com/jbvsmo/funcbuilder/pkg/types"

// Programmatic constructors for building expression trees directly, without
// going through the text parser. Each call allocates a fresh node; operands
// are never mutated, so subtrees can be shared between expressions.

// Var references a variable by name, resolved at evaluation time.
func Var(name string) Node { return &IdentNode{Name: name} }

// Lit wraps an already-built runtime value as a literal.
func Lit(v types.Value) Node { return &ValueNode{Val: v} }

// Int is a shorthand for Lit(types.NewInt(v)).
func Int(v int64) Node { return &ValueNode{Val: types.NewInt(v)} }

// Float is a shorthand for Lit(types.NewDouble(v)).
func Float(v float64) Node { return &ValueNode{Val: types.NewDouble(v)} }

// Str is a shorthand for Lit(types.NewString(s)).
func Str(s string) Node { return &ValueNode{Val: types.NewString(s)} }

// Bool is a shorthand for Lit(types.NewBool(b)).
func Bool(b bool) Node { return &ValueNode{Val: types.NewBool(b)} }

// None is the null literal.
func None() Node { return &ValueNode{Val: types.Null} }

// Add builds left + right.
func Add(left, right Node) Node { return &BinaryNode{Op: TokenPlus, Left: left, Right: right} }

// Sub builds left - right.
func Sub(left, right Node) Node { return &BinaryNode{Op: TokenMinus, Left: left, Right: right} }

// Mul builds left * right.
func Mul(left, right Node) Node { return &BinaryNode{Op: TokenStar, Left: left, Right: right} }

// Div builds left / right (true division).
func Div(left, right Node) Node { return &BinaryNode{Op: TokenSlash, Left: left, Right: right} }

// FloorDiv builds left // right.
func FloorDiv(left, right Node) Node { return &BinaryNode{Op: TokenIntDiv, Left: left, Right: right} }

// Mod builds left % right.
func Mod(left, right Node) Node { return &BinaryNode{Op: TokenPercent, Left: left, Right: right} }

// Pow builds left ** right.
func Pow(left, right Node) Node { return &BinaryNode{Op: TokenPower, Left: left, Right: right} }

// Eq builds left == right.
func Eq(left, right Node) Node { return &BinaryNode{Op: TokenEq, Left: left, Right: right} }

// Ne builds left != right.
func Ne(left, right Node) Node { return &BinaryNode{Op: TokenNeq, Left: left, Right: right} }

// Lt builds left < right.
func Lt(left, right Node) Node { return &BinaryNode{Op: TokenLt, Left: left, Right: right} }

// Le builds left <= right.
func Le(left, right Node) Node { return &BinaryNode{Op: TokenLte, Left: left, Right: right} }

// Gt builds left > right.
func Gt(left, right Node) Node { return &BinaryNode{Op: TokenGt, Left: left, Right: right} }

// Ge builds left >= right.
func Ge(left, right Node) Node { return &BinaryNode{Op: TokenGte, Left: left, Right: right} }

// And builds a short-circuiting left and right.
func And(left, right Node) Node { return &BinaryNode{Op: TokenAnd, Left: left, Right: right} }

// Or builds a short-circuiting left or right.
func Or(left, right Node) Node { return &BinaryNode{Op: TokenOr, Left: left, Right: right} }

// Neg builds unary -operand.
func Neg(operand Node) Node { return &UnaryNode{Op: TokenMinus, Operand: operand} }

// Not builds unary not operand.
func Not(operand Node) Node { return &UnaryNode{Op: TokenNot, Operand: operand} }

// Attr builds attribute access obj.name.
func Attr(obj Node, name string) Node { return &PropertyNode{Object: obj, Property: name} }

// Index builds index access obj[idx].
func Index(obj, idx Node) Node { return &IndexNode{Object: obj, Index: idx} }

// At builds a call of fn with the given arguments.
func At(fn Node, args ...Node) Node { return &CallNode{Function: fn, Args: args} }

// List builds a list literal from element expressions.
func List(elements ...Node) Node { return &ListNode{Elements: elements} }
