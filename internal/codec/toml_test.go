package codec

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jyt/internal/errors"
	"github.com/mcncl/jyt/internal/models"
)

func TestTOML_DecodeKeepsDocumentOrder(t *testing.T) {
	input := `
zeta = 1
alpha = 2

[table]
y = 1
x = 2

[[items]]
name = "first"

[other]
`
	v, err := tomlCodec{}.Decode(input)
	require.NoError(t, err)

	m, ok := v.AsMapping()
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "table", "items", "other"}, m.Keys())

	table, _ := m.Get("table")
	tm, _ := table.AsMapping()
	assert.Equal(t, []string{"y", "x"}, tm.Keys())
}

func TestTOML_DecodeTypes(t *testing.T) {
	input := `
int = 5000
float = 5.0
bool = true
str = "192.168.1.1"
odt = 1979-05-27T00:32:00-07:00
utc = 1979-05-27T07:32:00Z
ldt = 1979-05-27T07:32:00.5
ld = 1979-05-27
lt = 07:32:00
special = [inf, -inf]
`
	v, err := tomlCodec{}.Decode(input)
	require.NoError(t, err)

	expected := mapping(
		"int", models.Int(5000),
		"float", models.Float(5),
		"bool", models.Bool(true),
		"str", models.String("192.168.1.1"),
		"odt", models.String("1979-05-27T00:32:00-07:00"),
		"utc", models.String("1979-05-27T07:32:00Z"),
		"ldt", models.String("1979-05-27T07:32:00.5"),
		"ld", models.String("1979-05-27"),
		"lt", models.String("07:32:00"),
		"special", models.Sequence(models.Float(math.Inf(1)), models.Float(math.Inf(-1))),
	)
	assert.True(t, expected.Equal(v), "got %s", v)
}

func TestTOML_DecodeTablesAndArrays(t *testing.T) {
	input := `
points = [{ x = 1 }, { x = 2 }]

[a.b]
c = 1

[[fruit]]
name = "apple"

[[fruit]]
name = "banana"
`
	v, err := tomlCodec{}.Decode(input)
	require.NoError(t, err)

	expected := mapping(
		"points", models.Sequence(mapping("x", models.Int(1)), mapping("x", models.Int(2))),
		"a", mapping("b", mapping("c", models.Int(1))),
		"fruit", models.Sequence(
			mapping("name", models.String("apple")),
			mapping("name", models.String("banana")),
		),
	)
	assert.True(t, expected.Equal(v), "got %s", v)
}

func TestTOML_DecodeArrayElementsKeepTheirOwnOrder(t *testing.T) {
	input := `
[[a]]
z = 1
b = 2

[[a]]
b = 3
z = 4

[[a]]

[[a]]
only = true
z = 5

[[a.sub]]
y = 1
x = 2

[[a.sub]]
x = 3
y = 4

[a.t]
q = 1
p = 2

inline = [{ z = 1, b = 2 }, { b = 3, z = 4 }, { c = 5, b = 6 }]
`
	v, err := tomlCodec{}.Decode(input)
	require.NoError(t, err)

	expected := mapping(
		"a", models.Sequence(
			mapping("z", models.Int(1), "b", models.Int(2)),
			mapping("b", models.Int(3), "z", models.Int(4)),
			mapping(),
			mapping(
				"only", models.Bool(true),
				"z", models.Int(5),
				"sub", models.Sequence(
					mapping("y", models.Int(1), "x", models.Int(2)),
					mapping("x", models.Int(3), "y", models.Int(4)),
				),
				"t", mapping(
					"q", models.Int(1),
					"p", models.Int(2),
					"inline", models.Sequence(
						mapping("z", models.Int(1), "b", models.Int(2)),
						mapping("b", models.Int(3), "z", models.Int(4)),
						mapping("c", models.Int(5), "b", models.Int(6)),
					),
				),
			),
		),
	)
	assert.True(t, expected.Equal(v), "got %s", v)
}

func TestTOML_DecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing value", "a = "},
		{"unclosed header", "[table"},
		{"duplicate key", "a = 1\na = 2\n"},
		{"unterminated string", "a = \"abc\n"},
		{"invalid escape", `a = "\q"`},
		{"bare value", "a = nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tomlCodec{}.Decode(tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsDeserialization(err), "expected a deserialization error, got %v", err)
			assert.True(t, v.IsNull())
		})
	}
}

func TestTOML_EncodeExample(t *testing.T) {
	expected, err := os.ReadFile(filepath.Join("..", "..", "testdata", "example.toml"))
	require.NoError(t, err)

	v := mapping(
		"title", models.String("TOML Example"),
		"owner", mapping("name", models.String("Tom Preston-Werner")),
		"database", mapping(
			"server", models.String("192.168.1.1"),
			"ports", models.Sequence(models.Int(8000), models.Int(8001), models.Int(8002)),
			"connection_max", models.Int(5000),
			"enabled", models.Bool(true),
		),
	)

	out, err := tomlCodec{}.Encode(v)
	require.NoError(t, err)
	assert.Equal(t, string(expected), out)
}

func TestTOML_Encode(t *testing.T) {
	tests := []struct {
		name     string
		value    models.Value
		expected string
	}{
		{
			name:     "empty document",
			value:    models.MappingValue(nil),
			expected: "",
		},
		{
			name: "table before a plain key stays in place",
			value: mapping(
				"t", mapping("x", models.Int(1), "u", mapping("y", models.Int(2))),
				"s", models.String("v"),
			),
			expected: "t.x = 1\nt.u.y = 2\ns = \"v\"\n",
		},
		{
			name: "only tables after the last plain key become sections",
			value: mapping(
				"a", mapping("x", models.Int(1)),
				"s", models.String("v"),
				"b", mapping("y", models.Int(2)),
			),
			expected: "a.x = 1\ns = \"v\"\n\n[b]\ny = 2\n",
		},
		{
			name: "array of tables before a plain key renders inline",
			value: mapping(
				"list", models.Sequence(mapping("x", models.Int(1)), mapping("x", models.Int(2))),
				"e", mapping(),
				"s", models.Int(3),
			),
			expected: "list = [{ x = 1 }, { x = 2 }]\ne = {}\ns = 3\n",
		},
		{
			name:     "implicit parent tables",
			value:    mapping("a", mapping("b", mapping("c", models.Int(1)))),
			expected: "[a.b]\nc = 1\n",
		},
		{
			name:     "parent with values and sub-table",
			value:    mapping("a", mapping("v", models.Int(1), "b", mapping("c", models.Int(2)))),
			expected: "[a]\nv = 1\n\n[a.b]\nc = 2\n",
		},
		{
			name: "arrays of tables",
			value: mapping("fruit", models.Sequence(
				mapping("name", models.String("apple"), "physical", mapping("color", models.String("red"))),
				mapping("name", models.String("banana")),
			)),
			expected: "[[fruit]]\nname = \"apple\"\n\n[fruit.physical]\ncolor = \"red\"\n\n[[fruit]]\nname = \"banana\"\n",
		},
		{
			name:     "mixed array renders inline",
			value:    mapping("m", models.Sequence(models.Int(1), mapping("a", models.String("x"), "b", models.Int(2)), models.Sequence())),
			expected: "m = [1, { a = \"x\", b = 2 }, []]\n",
		},
		{
			name:     "empty containers",
			value:    mapping("e", models.Sequence(), "t", models.MappingValue(nil)),
			expected: "e = []\n\n[t]\n",
		},
		{
			name:     "quoted keys",
			value:    mapping("a b", models.Int(1), "ключ", models.Int(2), "", models.Int(3), "bare_key-1", models.Int(4)),
			expected: "\"a b\" = 1\n\"ключ\" = 2\n\"\" = 3\nbare_key-1 = 4\n",
		},
		{
			name:     "quoted table path",
			value:    mapping("dotted.name", mapping("k", models.Bool(false))),
			expected: "[\"dotted.name\"]\nk = false\n",
		},
		{
			name:     "floats",
			value:    mapping("f", models.Float(5), "n", models.Float(math.NaN()), "i", models.Float(math.Inf(-1)), "e", models.Float(1e-7)),
			expected: "f = 5.0\nn = nan\ni = -inf\ne = 1e-7\n",
		},
		{
			name:     "string escapes",
			value:    mapping("s", models.String("a\"b\\c\nd\te\x01")),
			expected: "s = \"a\\\"b\\\\c\\nd\\te\\u0001\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tomlCodec{}.Encode(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)

			_, err = tomlCodec{}.Decode(out)
			assert.NoError(t, err, "output must be valid TOML:\n%s", out)
		})
	}
}

func TestTOML_EncodeRejectsNull(t *testing.T) {
	tests := []struct {
		name  string
		value models.Value
	}{
		{"root", models.Null()},
		{"top-level value", mapping("a", models.Null())},
		{"nested table", mapping("t", mapping("u", mapping("v", models.Null())))},
		{"array element", mapping("a", models.Sequence(models.Int(1), models.Null()))},
		{"inline table in array", mapping("a", models.Sequence(models.Int(1), mapping("x", models.Null())))},
		{"array of tables", mapping("a", models.Sequence(mapping("x", models.Int(1)), mapping("x", models.Null())))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tomlCodec{}.Encode(tt.value)
			require.Error(t, err)
			assert.True(t, errors.IsSerialization(err), "expected a serialization error, got %v", err)
			assert.Empty(t, out)
		})
	}
}

func TestTOML_EncodeNullReportsPath(t *testing.T) {
	_, err := tomlCodec{}.Encode(mapping("database", mapping("server", models.Null())))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNullInTOML)
	assert.Contains(t, err.Error(), "database.server")
}

func TestTOML_EncodeRejectsNonTableRoot(t *testing.T) {
	for _, v := range []models.Value{models.Sequence(models.Int(1)), models.String("x"), models.Int(1)} {
		_, err := tomlCodec{}.Encode(v)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNonTableRoot)
		assert.True(t, errors.IsSerialization(err))
	}
}
