package expr

import (
	"testing"

	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// mapScope is a flat variable scope for evaluator tests.
type mapScope map[string]types.Value

func (s mapScope) GetVariable(name string) (types.Value, error) {
	if v, ok := s[name]; ok {
		return v, nil
	}
	return types.Null, types.NewNameError(name)
}

// evalString parses and evaluates an expression, failing the test on error.
func evalString(t *testing.T, input string, scope Scope) types.Value {
	t.Helper()
	node, err := ParseExpression(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	val, err := Evaluate(node, scope)
	if err != nil {
		t.Fatalf("eval %q: %v", input, err)
	}
	return val
}

func TestArithmetic(t *testing.T) {
	scope := mapScope{"x": types.NewInt(10)}

	tests := []struct {
		input string
		want  types.Value
	}{
		{"1 + 2", types.NewInt(3)},
		{"2 * 3 + 4", types.NewInt(10)},
		{"2 + 3 * 4", types.NewInt(14)},
		{"7 / 2", types.NewDouble(3.5)},
		{"8 / 2", types.NewDouble(4.0)},
		{"7 // 2", types.NewInt(3)},
		{"-7 // 2", types.NewInt(-4)},
		{"7.0 // 2", types.NewDouble(3.0)},
		{"7 % 3", types.NewInt(1)},
		{"-7 % 3", types.NewInt(2)},
		{"7 % -3", types.NewInt(-2)},
		{"2 ** 10", types.NewInt(1024)},
		{"2 ** -1", types.NewDouble(0.5)},
		{"-2 ** 2", types.NewInt(-4)},
		{"2 ** 3 ** 2", types.NewInt(512)},
		{"x ** 2 - 1", types.NewInt(99)},
		{"1 + 2.5", types.NewDouble(3.5)},
		{"'a' + 'b'", types.NewString("ab")},
		{"[1, 2] + [3]", types.NewList([]types.Value{types.NewInt(1), types.NewInt(2), types.NewInt(3)})},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalString(t, tt.input, scope)
			if !got.Equal(tt.want) || got.Type() != tt.want.Type() {
				t.Errorf("got %s (%s), want %s (%s)", got.Repr(), got.Type(), tt.want.Repr(), tt.want.Type())
			}
		})
	}
}

func TestComparisonAndLogic(t *testing.T) {
	scope := mapScope{"x": types.NewInt(0), "s": types.NewString("")}

	tests := []struct {
		input string
		want  types.Value
	}{
		{"1 < 2", types.NewBool(true)},
		{"2 <= 2", types.NewBool(true)},
		{"1 == 1.0", types.NewBool(true)},
		{"1 != 2", types.NewBool(true)},
		{"'a' < 'b'", types.NewBool(true)},
		// Comparison against null is identity, not falsiness
		{"x == None", types.NewBool(false)},
		{"s == None", types.NewBool(false)},
		{"None == None", types.NewBool(true)},
		{"x != None", types.NewBool(true)},
		// and/or return operand values
		{"0 or 5", types.NewInt(5)},
		{"3 or 5", types.NewInt(3)},
		{"0 and 5", types.NewInt(0)},
		{"3 and 5", types.NewInt(5)},
		{"not 0", types.NewBool(true)},
		{"not [1]", types.NewBool(false)},
		{"2 in [1, 2, 3]", types.NewBool(true)},
		{"4 not in [1, 2, 3]", types.NewBool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalString(t, tt.input, scope)
			if !got.Equal(tt.want) || got.Type() != tt.want.Type() {
				t.Errorf("got %s (%s), want %s (%s)", got.Repr(), got.Type(), tt.want.Repr(), tt.want.Type())
			}
		})
	}
}

func TestShortCircuit(t *testing.T) {
	// The right side references an undefined name; it must not be reached.
	scope := mapScope{}
	if got := evalString(t, "0 and missing", scope); got.AsInt() != 0 {
		t.Errorf("0 and missing = %s", got.Repr())
	}
	if got := evalString(t, "1 or missing", scope); got.AsInt() != 1 {
		t.Errorf("1 or missing = %s", got.Repr())
	}
}

func TestEvalErrors(t *testing.T) {
	scope := mapScope{"m": types.NewMap(types.NewOrderedMap())}

	tests := []struct {
		input string
		tag   string
	}{
		{"missing + 1", types.TagNameError},
		{"1 / 0", types.TagZeroDivisionError},
		{"5 // 0", types.TagZeroDivisionError},
		{"5 % 0", types.TagZeroDivisionError},
		{"'a' + 1", types.TagTypeError},
		{"m.nope", types.TagKeyError},
		{"[1, 2][5]", types.TagIndexError},
		{"1(2)", types.TagTypeError},
		{"[1] < [2]", types.TagTypeError},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = Evaluate(node, scope)
			if err == nil {
				t.Fatal("expected error")
			}
			if !types.AsError(err).HasTag(tt.tag) {
				t.Errorf("error %v, want tag %s", err, tt.tag)
			}
		})
	}
}

func TestIndexing(t *testing.T) {
	m := types.NewOrderedMap()
	m.Set("k", types.NewInt(7))
	scope := mapScope{
		"xs": types.NewList([]types.Value{types.NewInt(10), types.NewInt(20), types.NewInt(30)}),
		"m":  types.NewMap(m),
		"s":  types.NewString("abc"),
	}

	tests := []struct {
		input string
		want  types.Value
	}{
		{"xs[0]", types.NewInt(10)},
		{"xs[-1]", types.NewInt(30)},
		{"m['k']", types.NewInt(7)},
		{"m.k", types.NewInt(7)},
		{"s[1]", types.NewString("b")},
		{"s[-1]", types.NewString("c")},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalString(t, tt.input, scope)
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Repr(), tt.want.Repr())
			}
		})
	}
}

// increment is a minimal Callable for call evaluation tests.
type increment struct{}

func (increment) Name() string { return "increment" }

func (increment) Call(args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, types.NewTypeError("increment takes one argument")
	}
	return types.NewInt(args[0].AsInt() + 1), nil
}

func TestCall(t *testing.T) {
	scope := mapScope{"inc": types.NewFunc(increment{})}
	if got := evalString(t, "inc(inc(40))", scope); got.AsInt() != 42 {
		t.Errorf("inc(inc(40)) = %s", got.Repr())
	}
}

func TestConstructors(t *testing.T) {
	// (x ** 2) - 1 built programmatically, evaluated twice: trees are
	// immutable and evaluation is idempotent.
	node := Sub(Pow(Var("x"), Int(2)), Int(1))
	scope := mapScope{"x": types.NewInt(10)}

	for i := 0; i < 2; i++ {
		val, err := Evaluate(node, scope)
		if err != nil {
			t.Fatalf("eval pass %d: %v", i, err)
		}
		if val.Type() != types.TypeInt || val.AsInt() != 99 {
			t.Errorf("pass %d: got %s, want 99", i, val.Repr())
		}
	}
}

func TestSharedSubtrees(t *testing.T) {
	// The same subtree used in two expressions must not interfere.
	x := Var("x")
	double := Mul(x, Int(2))
	square := Pow(x, Int(2))
	scope := mapScope{"x": types.NewInt(5)}

	d, err := Evaluate(double, scope)
	if err != nil {
		t.Fatal(err)
	}
	s, err := Evaluate(square, scope)
	if err != nil {
		t.Fatal(err)
	}
	if d.AsInt() != 10 || s.AsInt() != 25 {
		t.Errorf("double = %s, square = %s", d.Repr(), s.Repr())
	}
}

func TestInterpolation(t *testing.T) {
	node, err := ParseValue("value is ${1 + 2}!")
	if err != nil {
		t.Fatal(err)
	}
	val, err := Evaluate(node, mapScope{})
	if err != nil {
		t.Fatal(err)
	}
	if val.AsString() != "value is 3!" {
		t.Errorf("got %q", val.AsString())
	}
}
