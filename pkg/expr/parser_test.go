package expr

import "testing"

func TestParseExpressionStructure(t *testing.T) {
	node, err := ParseExpression("a + b * c")
	if err != nil {
		t.Fatal(err)
	}
	bin, ok := node.(*BinaryNode)
	if !ok || bin.Op != TokenPlus {
		t.Fatalf("root = %T, want + BinaryNode", node)
	}
	if _, ok := bin.Left.(*IdentNode); !ok {
		t.Errorf("left = %T, want IdentNode", bin.Left)
	}
	right, ok := bin.Right.(*BinaryNode)
	if !ok || right.Op != TokenStar {
		t.Errorf("right = %T, want * BinaryNode", bin.Right)
	}
}

func TestParsePowerRightAssoc(t *testing.T) {
	node, err := ParseExpression("a ** b ** c")
	if err != nil {
		t.Fatal(err)
	}
	outer, ok := node.(*BinaryNode)
	if !ok || outer.Op != TokenPower {
		t.Fatalf("root = %T, want ** BinaryNode", node)
	}
	inner, ok := outer.Right.(*BinaryNode)
	if !ok || inner.Op != TokenPower {
		t.Errorf("right = %T, want nested ** on the right", outer.Right)
	}
}

func TestParsePostfixChain(t *testing.T) {
	node, err := ParseExpression("self.items[0].name")
	if err != nil {
		t.Fatal(err)
	}
	prop, ok := node.(*PropertyNode)
	if !ok || prop.Property != "name" {
		t.Fatalf("root = %T, want PropertyNode name", node)
	}
	if _, ok := prop.Object.(*IndexNode); !ok {
		t.Errorf("object = %T, want IndexNode", prop.Object)
	}
}

func TestParseCall(t *testing.T) {
	node, err := ParseExpression("Foo(42).foo(x, y + 1)")
	if err != nil {
		t.Fatal(err)
	}
	call, ok := node.(*CallNode)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("root = %T with %d args, want CallNode with 2", node, len(call.Args))
	}
	method, ok := call.Function.(*PropertyNode)
	if !ok || method.Property != "foo" {
		t.Fatalf("callee = %T, want PropertyNode foo", call.Function)
	}
	if _, ok := method.Object.(*CallNode); !ok {
		t.Errorf("receiver = %T, want CallNode (constructor)", method.Object)
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"1 +",
		"(1 + 2",
		"[1, 2",
		"a.",
		"1 2",
		"@",
		"'unterminated",
	}
	for _, input := range inputs {
		if _, err := ParseExpression(input); err == nil {
			t.Errorf("ParseExpression(%q) should fail", input)
		}
	}
}

func TestParseValueForms(t *testing.T) {
	// Plain scalar stays a literal even if it looks like an expression
	node, err := ParseValue("x + 1")
	if err != nil {
		t.Fatal(err)
	}
	lit, ok := node.(*LiteralNode)
	if !ok || lit.StrVal != "x + 1" {
		t.Fatalf("plain string = %T (%v)", node, node)
	}

	// ${} wrapper parses as an expression
	node, err = ParseValue("${x + 1}")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node.(*BinaryNode); !ok {
		t.Fatalf("wrapped = %T, want BinaryNode", node)
	}

	// YAML lists become list nodes element-wise
	node, err = ParseValue([]interface{}{1, "${x}", "plain"})
	if err != nil {
		t.Fatal(err)
	}
	list, ok := node.(*ListNode)
	if !ok || len(list.Elements) != 3 {
		t.Fatalf("list = %T", node)
	}
	if _, ok := list.Elements[1].(*IdentNode); !ok {
		t.Errorf("element 1 = %T, want IdentNode", list.Elements[1])
	}
}
