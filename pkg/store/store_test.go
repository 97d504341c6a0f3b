package store

import (
	"testing"

	"github.com/jbvsmo/funcbuilder/pkg/ast"
	"github.com/jbvsmo/funcbuilder/pkg/runtime"
)

func TestSaveAndGet(t *testing.T) {
	s := New()
	prog := &ast.Program{}
	ns := runtime.NewNamespace()

	script := s.Save("demo", "- set: {x: 1}", prog, ns)
	if script.Revision != 1 {
		t.Errorf("revision = %d, want 1", script.Revision)
	}

	got, err := s.Get("demo")
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != "- set: {x: 1}" || got.Namespace != ns {
		t.Errorf("got %+v", got)
	}

	if _, err := s.Get("missing"); err == nil {
		t.Error("Get(missing) should fail")
	}
}

func TestSaveBumpsRevision(t *testing.T) {
	s := New()
	first := s.Save("demo", "v1", &ast.Program{}, runtime.NewNamespace())
	second := s.Save("demo", "v2", &ast.Program{}, runtime.NewNamespace())

	if second.Revision != 2 {
		t.Errorf("revision = %d, want 2", second.Revision)
	}
	if !second.CreateTime.Equal(first.CreateTime) {
		t.Error("redeploy should keep the original create time")
	}
	got, _ := s.Get("demo")
	if got.Source != "v2" {
		t.Errorf("source = %q, want v2", got.Source)
	}
}

func TestListAndDelete(t *testing.T) {
	s := New()
	s.Save("b", "", &ast.Program{}, runtime.NewNamespace())
	s.Save("a", "", &ast.Program{}, runtime.NewNamespace())

	list := s.List()
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Errorf("List() = %v", list)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("a"); err == nil {
		t.Error("double delete should fail")
	}
	if len(s.List()) != 1 {
		t.Errorf("List() after delete = %v", s.List())
	}
}
