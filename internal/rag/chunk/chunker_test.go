package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() config.ChunkingConfig {
	return config.Default().Chunking
}

func longText(words int) string {
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 && i%40 == 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("adversary ")
	}
	return b.String()
}

func TestDocument_Deterministic(t *testing.T) {
	doc := commonModels.Document{Id: "mitre", Path: "dataset/mitre.pdf", Title: "MITRE", Type: commonModels.Textbook}
	segments := []commonModels.Segment{
		{DocumentId: "mitre", Position: 1, Section: "1 Introduction", Text: longText(400)},
		{DocumentId: "mitre", Position: 2, Text: longText(50)},
	}

	c := New(testSettings())
	first, err := c.Document(doc, segments)
	require.NoError(t, err)
	second, err := c.Document(doc, segments)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	ids := map[string]bool{}
	for i, ch := range first {
		assert.Equal(t, i, ch.Ordinal)
		assert.Equal(t, "mitre.pdf", ch.Source)
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Chunk), 1000)
		assert.False(t, ids[ch.ChunkId], "duplicate chunk id")
		ids[ch.ChunkId] = true
	}
	assert.Equal(t, "1 Introduction", first[0].Section)
}

func TestDocument_SlidesJoinedPerSlide(t *testing.T) {
	doc := commonModels.Document{Id: "owasp", Path: "owasp.pdf", Type: commonModels.SlideDeck}
	segments := []commonModels.Segment{
		{Position: 3, Section: "A01 Broken Access Control", Text: "A01 Broken Access Control", IsTitle: true},
		{Position: 3, Section: "A01 Broken Access Control", Text: "Violation of least privilege"},
		{Position: 4, Section: "A02 Cryptographic Failures", Text: "A02 Cryptographic Failures", IsTitle: true},
	}

	chunks, err := New(testSettings()).Document(doc, segments)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "A01 Broken Access Control\nViolation of least privilege", chunks[0].Chunk)
	assert.Equal(t, 3, chunks[0].Position)
	assert.Equal(t, "A02 Cryptographic Failures", chunks[1].Section)
	assert.Equal(t, commonModels.SlideDeck, chunks[1].DocumentType)
}

func TestDocument_RespectsTypeSizes(t *testing.T) {
	settings := testSettings()
	doc := commonModels.Document{Id: "th", Path: "th.pdf", Type: commonModels.LocalizedStandard}
	text := strings.Repeat("มาตรฐานความปลอดภัย ", 200)

	chunks, err := New(settings).Document(doc, []commonModels.Segment{{Position: 1, Text: text}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Chunk), settings.LocalizedStandard.Size)
	}
}

func TestDocument_TextChangesId(t *testing.T) {
	doc := commonModels.Document{Id: "d", Path: "d.txt", Type: commonModels.PlainText}
	c := New(testSettings())

	a, err := c.Document(doc, []commonModels.Segment{{Position: 1, Text: "alpha"}})
	require.NoError(t, err)
	b, err := c.Document(doc, []commonModels.Segment{{Position: 1, Text: "beta"}})
	require.NoError(t, err)

	assert.NotEqual(t, a[0].ChunkId, b[0].ChunkId)
}

func TestDocument_SkipsBlankSegments(t *testing.T) {
	doc := commonModels.Document{Id: "d", Path: "d.txt", Type: commonModels.PlainText}
	chunks, err := New(testSettings()).Document(doc, []commonModels.Segment{{Position: 1, Text: "   \n "}})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
