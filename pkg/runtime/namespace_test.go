package runtime

import (
	"testing"

	"github.com/jbvsmo/funcbuilder/pkg/builder"
	"github.com/jbvsmo/funcbuilder/pkg/expr"
	"github.com/jbvsmo/funcbuilder/pkg/stdlib"
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

func TestCompileOrder(t *testing.T) {
	ns := compileProgram(t, builder.New().
		Class("A").End().
		Def("f").Ret(expr.Int(1)).End().
		Set("x", expr.Int(2)))

	want := []string{"A", "f", "x"}
	got := ns.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTopLevelAssignSeesEarlierDefinitions(t *testing.T) {
	// answer = double(21) where double is defined earlier in the program.
	ns := compileProgram(t, builder.New().
		Def("double", "x").
		Ret(expr.Mul(expr.Var("x"), expr.Int(2))).
		End().
		Set("answer", expr.At(expr.Var("double"), expr.Int(21))))

	v, ok := ns.Get("answer")
	if !ok || v.AsInt() != 42 {
		t.Errorf("answer = %v, want 42", v)
	}
}

func TestCompileIntoMergesAndOverwrites(t *testing.T) {
	target := NewNamespace()
	target.Set("keep", types.NewInt(1))
	target.Set("x", types.NewInt(1))

	prog, err := builder.New().Set("x", expr.Int(2)).Set("y", expr.Int(3)).Finish()
	if err != nil {
		t.Fatal(err)
	}
	if err := CompileInto(prog, stdlib.NewRegistry(), target); err != nil {
		t.Fatal(err)
	}

	if v, _ := target.Get("keep"); v.AsInt() != 1 {
		t.Errorf("keep = %v", v)
	}
	if v, _ := target.Get("x"); v.AsInt() != 2 {
		t.Errorf("x = %v, want overwritten 2", v)
	}
	if v, _ := target.Get("y"); v.AsInt() != 3 {
		t.Errorf("y = %v", v)
	}
}

func TestCompileIntoSeesTargetBindings(t *testing.T) {
	target := NewNamespace()
	target.Set("base", types.NewInt(40))

	prog, err := builder.New().
		Def("f").
		Ret(expr.Add(expr.Var("base"), expr.Int(2))).
		End().
		Finish()
	if err != nil {
		t.Fatal(err)
	}
	if err := CompileInto(prog, stdlib.NewRegistry(), target); err != nil {
		t.Fatal(err)
	}

	got, err := target.Call("f", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.AsInt() != 42 {
		t.Errorf("f() = %s, want 42", got.Repr())
	}
}

func TestCompileIntoIsAtomic(t *testing.T) {
	target := NewNamespace()
	target.Set("keep", types.NewInt(1))

	// The second top-level assignment fails to evaluate; nothing from the
	// program may reach the target.
	prog, err := builder.New().
		Set("a", expr.Int(1)).
		Set("b", expr.Var("missing")).
		Finish()
	if err != nil {
		t.Fatal(err)
	}

	err = CompileInto(prog, stdlib.NewRegistry(), target)
	if err == nil || !types.AsError(err).HasTag(types.TagNameError) {
		t.Fatalf("CompileInto error = %v, want NameError", err)
	}

	if target.Len() != 1 {
		t.Errorf("target has %d bindings, want 1", target.Len())
	}
	if _, ok := target.Get("a"); ok {
		t.Error("partial binding 'a' leaked into target")
	}
}

func TestNamespaceCallErrors(t *testing.T) {
	ns := NewNamespace()
	ns.Set("n", types.NewInt(1))

	_, err := ns.Call("missing", nil)
	if err == nil || !types.AsError(err).HasTag(types.TagNameError) {
		t.Errorf("error = %v, want NameError", err)
	}
	_, err = ns.Call("n", nil)
	if err == nil || !types.AsError(err).HasTag(types.TagTypeError) {
		t.Errorf("error = %v, want TypeError", err)
	}
}
