package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeBasicSelect(t *testing.T) {
	toks, err := Tokenize("SELECT a, b FROM t WHERE a = 1")
	require.NoError(t, err)

	want := []Token{
		{Kind: Keyword, Text: "select"},
		{Kind: Name, Text: "a"},
		{Kind: Operator, Text: ","},
		{Kind: Name, Text: "b"},
		{Kind: Keyword, Text: "from"},
		{Kind: Name, Text: "t"},
		{Kind: Keyword, Text: "where"},
		{Kind: Name, Text: "a"},
		{Kind: Operator, Text: "="},
		{Kind: Integer, Text: "1"},
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		assert.Equal(t, w.Kind, toks[i].Kind, "token %d kind", i)
		assert.Equal(t, w.Text, toks[i].Text, "token %d text", i)
	}
}

func TestTokenizeKeywordsAreCaseInsensitiveAndLowered(t *testing.T) {
	toks, err := Tokenize("SeLeCt 1")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, "select", toks[0].Text)
}

func TestTokenizeReservedWordPrefixIsAName(t *testing.T) {
	toks, err := Tokenize("selectable")
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, Name, toks[0].Kind)
	assert.Equal(t, "selectable", toks[0].Text)
}

func TestTokenizeFloatsBeforeIntegers(t *testing.T) {
	toks, err := Tokenize("3.14 2. .5 1e10 2")
	require.NoError(t, err)
	require.Len(t, toks, 5)
	for i, want := range []Kind{Float, Float, Float, Float, Integer} {
		assert.Equal(t, want, toks[i].Kind, "token %d", i)
	}
}

func TestTokenizeStringLiteralsRetainQuoteCharacter(t *testing.T) {
	toks, err := Tokenize(`'single' "double"`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, String, toks[0].Kind)
	assert.Equal(t, `'single'`, toks[0].Text)
	assert.Equal(t, String, toks[1].Kind)
	assert.Equal(t, `"double"`, toks[1].Text)
}

func TestTokenizeLineCommentIsDropped(t *testing.T) {
	toks, err := Tokenize("1 -- trailing comment\n2")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "1", toks[0].Text)
	assert.Equal(t, "2", toks[1].Text)
}

func TestTokenizeMultiCharOperatorsPreferLongestMatch(t *testing.T) {
	toks, err := Tokenize("a <= b <> c")
	require.NoError(t, err)
	var ops []string
	for _, tk := range toks {
		if tk.Kind == Operator {
			ops = append(ops, tk.Text)
		}
	}
	assert.Equal(t, []string{"<=", "<>"}, ops)
}

func TestTokenizeEmptyInput(t *testing.T) {
	toks, err := Tokenize("")
	require.NoError(t, err)
	assert.Empty(t, toks)
}

func TestTokenizeTracksByteOffset(t *testing.T) {
	toks, err := Tokenize("  abc")
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, 2, toks[0].Pos)
}

func TestTokenizeUnrecognizedInputIsAnError(t *testing.T) {
	_, err := Tokenize("@")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenize)
}

func TestTokenIs(t *testing.T) {
	tk := Token{Kind: Keyword, Text: "select"}
	assert.True(t, tk.Is(Keyword))
	assert.True(t, tk.Is(Keyword, "select", "from"))
	assert.False(t, tk.Is(Keyword, "from"))
	assert.False(t, tk.Is(Name))
}
