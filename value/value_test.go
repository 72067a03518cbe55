package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualPropagatesNull(t *testing.T) {
	got, err := Equal(NewInt(1), NewNull())
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestEqualCrossTagIsTypeError(t *testing.T) {
	_, err := Equal(NewInt(1), NewText("1"))
	require.Error(t, err)
	var typeErr *TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestCompareOrdersBoolFalseBeforeTrue(t *testing.T) {
	c, err := Compare(NewBool(false), NewBool(true))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestCompareTextLexicographic(t *testing.T) {
	c, err := Compare(NewText("alice"), NewText("bob"))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestTupleCodecRoundTrip(t *testing.T) {
	row := Row{NewInt(42), NewText("hello"), NewBool(true), NewNull()}
	encoded := Encode(row)
	decoded, err := Decode(encoded, len(row))
	require.NoError(t, err)
	assert.True(t, row.Equal(decoded))
}

func TestTupleCodecDeterministic(t *testing.T) {
	row := Row{NewInt(7), NewText("x")}
	assert.Equal(t, Encode(row), Encode(row.Clone()))
}

func TestSchemaExtractKey(t *testing.T) {
	s := NewSchema([]Column{
		{Name: "ID", Type: Int},
		{Name: "Name", Type: Text},
	}, []int{0})
	require.NoError(t, s.Validate())
	key := s.ExtractKey(Row{NewInt(1), NewText("a")})
	assert.Equal(t, Row{NewInt(1)}, key)
	assert.Equal(t, []string{"id", "name"}, s.ColumnNames())
}

func TestSchemaValidateRejectsDuplicatePK(t *testing.T) {
	s := Schema{
		Columns:    []Column{{Name: "id", Type: Int, Ordinal: 0}},
		PrimaryKey: []int{0, 0},
	}
	assert.Error(t, s.Validate())
}
