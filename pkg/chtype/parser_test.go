package chtype

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Simple(t *testing.T) {
	node, err := Parse("String")
	require.NoError(t, err)
	assert.Equal(t, "String", node.Name)
	assert.Empty(t, node.Args)
	assert.True(t, node.Leaf())
}

func TestParse_NumericArg(t *testing.T) {
	node, err := Parse("FixedString(16)")
	require.NoError(t, err)
	assert.Equal(t, "FixedString", node.Name)
	require.Len(t, node.Args, 1)
	// 数值字面量是叶子节点，Name 即字面量本身
	assert.Equal(t, "16", node.Args[0].Name)
	assert.True(t, node.Args[0].Leaf())
}

func TestParse_Nested(t *testing.T) {
	node, err := Parse("Array(Tuple(String, UInt64))")
	require.NoError(t, err)

	assert.Equal(t, "Array", node.Name)
	require.Len(t, node.Args, 1)

	tuple := node.Args[0]
	assert.Equal(t, "Tuple", tuple.Name)
	require.Len(t, tuple.Args, 2)
	assert.Equal(t, "String", tuple.Args[0].Name)
	assert.Equal(t, "UInt64", tuple.Args[1].Name)
}

func TestParse_DeeplyNested(t *testing.T) {
	node, err := Parse("Map(String, Array(Nullable(UInt64)))")
	require.NoError(t, err)

	assert.Equal(t, "Map", node.Name)
	require.Len(t, node.Args, 2)
	assert.Equal(t, "String", node.Args[0].Name)

	arr := node.Args[1]
	assert.Equal(t, "Array", arr.Name)
	require.Len(t, arr.Args, 1)
	nullable := arr.Args[0]
	assert.Equal(t, "Nullable", nullable.Name)
	require.Len(t, nullable.Args, 1)
	assert.Equal(t, "UInt64", nullable.Args[0].Name)
}

func TestParse_ArbitraryDepth(t *testing.T) {
	// 深度不受限：构造 64 层嵌套验证纯递归下降而非最外层括号匹配
	const depth = 64
	s := strings.Repeat("Array(", depth) + "UInt8" + strings.Repeat(")", depth)

	node, err := Parse(s)
	require.NoError(t, err)

	for i := 0; i < depth; i++ {
		assert.Equal(t, "Array", node.Name)
		require.Len(t, node.Args, 1)
		node = node.Args[0]
	}
	assert.Equal(t, "UInt8", node.Name)
}

func TestParse_WhitespaceInsensitive(t *testing.T) {
	compact, err := Parse("Map(String,Array(Nullable(UInt64)))")
	require.NoError(t, err)
	spaced, err := Parse("  Map( String ,\tArray( Nullable( UInt64 ) ) )  ")
	require.NoError(t, err)

	assert.Equal(t, compact.String(), spaced.String())
}

func TestParse_CanonicalRoundTrip(t *testing.T) {
	inputs := []string{
		"String",
		"UInt64",
		"FixedString(16)",
		"DateTime64(3)",
		"DateTime64(3, 'UTC')",
		"Array(Tuple(String, UInt64))",
		"Map(String, Array(Nullable(UInt64)))",
		"Tuple(UInt8, Tuple(String, Nullable(Float64)), Date)",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			node, err := Parse(in)
			require.NoError(t, err)

			// 规范序列化结果再次解析应得到相同的树
			again, err := Parse(node.String())
			require.NoError(t, err)
			assert.Equal(t, node, again)
			assert.Equal(t, node.String(), again.String())
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"only spaces", "   "},
		{"unbalanced open", "Array(String"},
		{"unbalanced close", "Array(String))"},
		{"empty type list", "Array()"},
		{"trailing garbage", "String junk"},
		{"leading comma", "Tuple(,String)"},
		{"dangling comma", "Tuple(String,)"},
		{"bare paren", "("},
		{"unterminated quote", "DateTime64(3, 'UTC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}
