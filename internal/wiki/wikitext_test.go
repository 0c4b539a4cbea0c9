// internal/wiki/wikitext_test.go
package wiki

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWikitextHeadingsAndLinks(t *testing.T) {
	text := "The '''dog''' is a [[Canidae|canid]].\n" +
		"\n" +
		"== Taxonomy ==\n" +
		"Dogs descend from [[Wolf|wolves]] and relate to [[Fox]].\n" +
		"=== Subspecies ===\n" +
		"See [[Category:Dogs]] for more.\n"

	paragraphs := ParseWikitext(text)
	require.Len(t, paragraphs, 5)

	intro := paragraphs[0]
	assert.Equal(t, 0, intro.Level)
	require.Len(t, intro.Spans, 3)
	assert.Equal(t, Span{Text: "The '''dog''' is a "}, intro.Spans[0])
	assert.Equal(t, Span{Text: "canid", Link: "Canidae"}, intro.Spans[1])
	assert.Equal(t, Span{Text: "."}, intro.Spans[2])

	assert.Equal(t, 2, paragraphs[1].Level)
	assert.Equal(t, "Taxonomy", paragraphs[1].Spans[0].Text)

	body := paragraphs[2]
	require.Len(t, body.Spans, 5)
	assert.Equal(t, Span{Text: "wolves", Link: "Wolf"}, body.Spans[1])
	assert.Equal(t, Span{Text: "Fox", Link: "Fox"}, body.Spans[3])

	assert.Equal(t, 3, paragraphs[3].Level)
	assert.Equal(t, "Subspecies", paragraphs[3].Spans[0].Text)

	// Category pseudo-links are dropped, surrounding text kept.
	last := paragraphs[4]
	require.Len(t, last.Spans, 2)
	assert.Equal(t, "See ", last.Spans[0].Text)
	assert.Empty(t, last.Spans[0].Link)
	assert.Equal(t, " for more.", last.Spans[1].Text)
}

func TestParseWikitextSkipsBlankLines(t *testing.T) {
	paragraphs := ParseWikitext("\n\n   \n")
	assert.Empty(t, paragraphs)
}

func TestParseHeadingRejectsBareEquals(t *testing.T) {
	_, _, ok := parseHeading("====")
	assert.False(t, ok)

	level, title, ok := parseHeading("== History ==")
	require.True(t, ok)
	assert.Equal(t, 2, level)
	assert.Equal(t, "History", title)
}

func TestParseSpansUnterminatedLink(t *testing.T) {
	spans := parseSpans("broken [[link without close")
	require.Len(t, spans, 1)
	assert.Equal(t, "broken [[link without close", spans[0].Text)
}
