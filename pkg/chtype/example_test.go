package chtype_test

import (
	"fmt"

	"github.com/omeyang/chkit/pkg/chtype"
)

func ExampleParse() {
	node, _ := chtype.Parse("Map(String, Array(Nullable(UInt64)))")
	fmt.Println(node.Name)
	fmt.Println(node.Args[1].String())
	// Output:
	// Map
	// Array(Nullable(UInt64))
}

func ExampleRegistry_ResolveString() {
	reg := chtype.NewRegistry()

	h, _ := reg.ResolveString("Nullable(Int32)")
	v, _ := h.Cast("42")
	lit, _ := h.Serialize(v, chtype.EncodingLiteral)
	null, _ := h.Serialize(nil, chtype.EncodingLiteral)

	fmt.Println(lit)
	fmt.Println(null)
	// Output:
	// 42
	// NULL
}
