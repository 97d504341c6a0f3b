package runtime

import (
	"testing"

	"github.com/jbvsmo/funcbuilder/pkg/ast"
	"github.com/jbvsmo/funcbuilder/pkg/builder"
	"github.com/jbvsmo/funcbuilder/pkg/expr"
	"github.com/jbvsmo/funcbuilder/pkg/stdlib"
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// compileProgram finishes a chain and compiles it against the standard
// builtins, failing the test on any error.
func compileProgram(t *testing.T, s *builder.Session) *Namespace {
	t.Helper()
	prog, err := s.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	ns, err := Compile(prog, stdlib.NewRegistry())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return ns
}

// callMethod resolves a bound method on an instance and invokes it.
func callMethod(t *testing.T, instance types.Value, name string, args ...types.Value) (types.Value, error) {
	t.Helper()
	bound, ok := instance.AsObject().Class.Bind(name, instance)
	if !ok {
		t.Fatalf("no method %q on %s", name, instance.AsObject().Class.ClassName())
	}
	return bound.AsFunc().Call(args)
}

// mustCallMethod is callMethod but fails the test on error.
func mustCallMethod(t *testing.T, instance types.Value, name string, args ...types.Value) types.Value {
	t.Helper()
	v, err := callMethod(t, instance, name, args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return v
}

// fooChain builds the reference class: a constructor storing x, a __repr__,
// a branching method, and a summing loop method.
func fooChain() *builder.Session {
	self := expr.Var("self")
	return builder.New().
		Class("Foo").
		Def("__init__", "self", "x").
		SetAttr("self", "x", expr.Var("x")).
		End().
		Def("__repr__", "self").
		Ret(expr.At(expr.Var("str"), expr.Attr(self, "x"))).
		End().
		Def("foo", "self", "x").
		If(expr.Var("x")).
		Ret(expr.Add(expr.Var("x"), expr.Attr(self, "x"))).
		Elif(expr.Eq(expr.Var("x"), expr.None())).
		Ret(expr.Add(expr.Attr(self, "x"), expr.Int(1))).
		Else().
		Ret(expr.Attr(self, "x")).
		End().
		End().
		Def("bar", "self", "y").
		Set("w", expr.Int(0)).
		For("i", expr.Var("y")).
		Set("w", expr.Add(expr.Var("w"), expr.Var("i"))).
		End().
		Ret(expr.Add(expr.Var("w"), expr.Attr(self, "x"))).
		End().
		End()
}

func TestClassScenario(t *testing.T) {
	ns := compileProgram(t, fooChain())

	instance, err := ns.Call("Foo", []types.Value{types.NewInt(42)})
	if err != nil {
		t.Fatalf("Foo(42): %v", err)
	}
	if instance.Type() != types.TypeObject {
		t.Fatalf("Foo(42) = %s, want object", instance.Type())
	}

	if got := instance.Repr(); got != "42" {
		t.Errorf("repr(Foo(42)) = %q, want \"42\"", got)
	}

	// Truthy argument takes the first branch
	if got := mustCallMethod(t, instance, "foo", types.NewInt(10)); got.AsInt() != 52 {
		t.Errorf("foo(10) = %s, want 52", got.Repr())
	}
	// Null takes the == None branch
	if got := mustCallMethod(t, instance, "foo", types.Null); got.AsInt() != 43 {
		t.Errorf("foo(None) = %s, want 43", got.Repr())
	}
	// Zero is falsy but not null, so it falls to else
	if got := mustCallMethod(t, instance, "foo", types.NewInt(0)); got.AsInt() != 42 {
		t.Errorf("foo(0) = %s, want 42", got.Repr())
	}

	xs := types.NewList([]types.Value{types.NewInt(1), types.NewInt(2), types.NewInt(3)})
	if got := mustCallMethod(t, instance, "bar", xs); got.AsInt() != 48 {
		t.Errorf("bar([1, 2, 3]) = %s, want 48", got.Repr())
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	ns := compileProgram(t, fooChain())

	a, err := ns.Call("Foo", []types.Value{types.NewInt(1)})
	if err != nil {
		t.Fatal(err)
	}
	b, err := ns.Call("Foo", []types.Value{types.NewInt(100)})
	if err != nil {
		t.Fatal(err)
	}

	if got := mustCallMethod(t, a, "foo", types.NewInt(0)); got.AsInt() != 1 {
		t.Errorf("a.foo(0) = %s, want 1", got.Repr())
	}
	if got := mustCallMethod(t, b, "foo", types.NewInt(0)); got.AsInt() != 100 {
		t.Errorf("b.foo(0) = %s, want 100", got.Repr())
	}
}

func TestRecursion(t *testing.T) {
	n := expr.Var("n")
	ns := compileProgram(t, builder.New().
		Def("fact", "n").
		If(expr.Le(n, expr.Int(1))).
		Ret(expr.Int(1)).
		Else().
		Ret(expr.Mul(n, expr.At(expr.Var("fact"), expr.Sub(n, expr.Int(1))))).
		End().
		End())

	got, err := ns.Call("fact", []types.Value{types.NewInt(5)})
	if err != nil {
		t.Fatal(err)
	}
	if got.AsInt() != 120 {
		t.Errorf("fact(5) = %s, want 120", got.Repr())
	}
}

func TestArityMismatch(t *testing.T) {
	ns := compileProgram(t, builder.New().
		Def("f", "a", "b").
		Ret(expr.Var("a")).
		End())

	_, err := ns.Call("f", []types.Value{types.NewInt(1)})
	if err == nil || !types.AsError(err).HasTag(types.TagTypeError) {
		t.Errorf("f(1) error = %v, want TypeError", err)
	}
}

func TestAssignBindsInCurrentFrame(t *testing.T) {
	// A function-local assignment shadows the top-level binding instead of
	// updating it.
	ns := compileProgram(t, builder.New().
		Set("g", expr.Int(1)).
		Def("f").
		Set("g", expr.Int(2)).
		Ret(expr.Var("g")).
		End())

	got, err := ns.Call("f", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.AsInt() != 2 {
		t.Errorf("f() = %s, want 2", got.Repr())
	}
	if g, _ := ns.Get("g"); g.AsInt() != 1 {
		t.Errorf("top-level g = %s, want 1", g.Repr())
	}
}

func TestLoopSharesFunctionFrame(t *testing.T) {
	// The loop variable stays bound after the loop ends.
	ns := compileProgram(t, builder.New().
		Def("last", "xs").
		Set("i", expr.None()).
		For("i", expr.Var("xs")).
		Set("seen", expr.Var("i")).
		End().
		Ret(expr.Var("i")).
		End())

	xs := types.NewList([]types.Value{types.NewInt(7), types.NewInt(9)})
	got, err := ns.Call("last", []types.Value{xs})
	if err != nil {
		t.Fatal(err)
	}
	if got.AsInt() != 9 {
		t.Errorf("last([7, 9]) = %s, want 9", got.Repr())
	}
}

func TestReturnStopsAtCallBoundary(t *testing.T) {
	// inner returns; outer continues executing after the call.
	ns := compileProgram(t, builder.New().
		Def("inner").
		Ret(expr.Int(1)).
		End().
		Def("outer").
		Set("a", expr.At(expr.Var("inner"))).
		Ret(expr.Add(expr.Var("a"), expr.Int(10))).
		End())

	got, err := ns.Call("outer", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.AsInt() != 11 {
		t.Errorf("outer() = %s, want 11", got.Repr())
	}
}

func TestFallOffEndReturnsNull(t *testing.T) {
	ns := compileProgram(t, builder.New().
		Def("noop", "x").
		Set("y", expr.Var("x")).
		End())

	got, err := ns.Call("noop", []types.Value{types.NewInt(1)})
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsNull() {
		t.Errorf("noop(1) = %s, want None", got.Repr())
	}
}

func TestIterateMapAndString(t *testing.T) {
	ns := compileProgram(t, builder.New().
		Def("collect", "it").
		Set("out", expr.List()).
		For("c", expr.Var("it")).
		Set("out", expr.Add(expr.Var("out"), expr.List(expr.Var("c")))).
		End().
		Ret(expr.Var("out")).
		End())

	m := types.NewOrderedMap()
	m.Set("b", types.NewInt(1))
	m.Set("a", types.NewInt(2))
	got, err := ns.Call("collect", []types.Value{types.NewMap(m)})
	if err != nil {
		t.Fatal(err)
	}
	want := types.NewList([]types.Value{types.NewString("b"), types.NewString("a")})
	if !got.Equal(want) {
		t.Errorf("collect(map) = %s, want %s", got.Repr(), want.Repr())
	}

	got, err = ns.Call("collect", []types.Value{types.NewString("ab")})
	if err != nil {
		t.Fatal(err)
	}
	want = types.NewList([]types.Value{types.NewString("a"), types.NewString("b")})
	if !got.Equal(want) {
		t.Errorf("collect(\"ab\") = %s, want %s", got.Repr(), want.Repr())
	}

	if _, err := ns.Call("collect", []types.Value{types.NewInt(3)}); err == nil ||
		!types.AsError(err).HasTag(types.TagTypeError) {
		t.Errorf("collect(3) error = %v, want TypeError", err)
	}
}

func TestRuntimeErrorLeavesNamespaceUsable(t *testing.T) {
	ns := compileProgram(t, builder.New().
		Def("bad").
		Ret(expr.Var("missing")).
		End().
		Def("good").
		Ret(expr.Int(7)).
		End())

	_, err := ns.Call("bad", nil)
	if err == nil || !types.AsError(err).HasTag(types.TagNameError) {
		t.Fatalf("bad() error = %v, want NameError", err)
	}

	got, err := ns.Call("good", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.AsInt() != 7 {
		t.Errorf("good() = %s, want 7", got.Repr())
	}
}

func TestMethodCallThroughExpression(t *testing.T) {
	// Foo(42).foo(10) evaluated as a single expression tree.
	ns := compileProgram(t, fooChain())

	node := expr.At(
		expr.Attr(expr.At(expr.Var("Foo"), expr.Int(42)), "foo"),
		expr.Int(10))
	scope := NewScope(lookups{ns, stdlib.NewRegistry()})

	got, err := expr.Evaluate(node, scope)
	if err != nil {
		t.Fatal(err)
	}
	if got.AsInt() != 52 {
		t.Errorf("Foo(42).foo(10) = %s, want 52", got.Repr())
	}
}

func TestAttributeErrors(t *testing.T) {
	ns := compileProgram(t, fooChain())
	instance, err := ns.Call("Foo", []types.Value{types.NewInt(1)})
	if err != nil {
		t.Fatal(err)
	}

	scope := NewScope(nil)
	scope.Set("obj", instance)
	node := expr.Attr(expr.Var("obj"), "nope")
	if _, err := expr.Evaluate(node, scope); err == nil ||
		!types.AsError(err).HasTag(types.TagAttributeError) {
		t.Errorf("obj.nope error = %v, want AttributeError", err)
	}
}

func TestAssignThroughMissingIntermediate(t *testing.T) {
	prog := &ast.Program{Nodes: []ast.Node{
		&ast.FunctionDef{
			Name:   "f",
			Params: []string{"o"},
			Body: ast.Block{
				&ast.Assign{
					Target: ast.Target{Name: "o", Path: []string{"a", "b"}},
					Value:  expr.Int(1),
				},
			},
		},
	}}
	ns, err := Compile(prog, nil)
	if err != nil {
		t.Fatal(err)
	}

	m := types.NewMap(types.NewOrderedMap())
	_, err = ns.Call("f", []types.Value{m})
	if err == nil || !types.AsError(err).HasTag(types.TagKeyError) {
		t.Errorf("error = %v, want KeyError on missing intermediate", err)
	}
}
