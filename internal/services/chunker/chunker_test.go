package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, cfg Config) *Chunker {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"zero overlap", Config{MaxChars: 100, OverlapChars: 0, MinChunkChars: 10}, false},
		{"zero max chars", Config{MaxChars: 0, OverlapChars: 0, MinChunkChars: 0}, true},
		{"negative max chars", Config{MaxChars: -1}, true},
		{"overlap equals max", Config{MaxChars: 100, OverlapChars: 100}, true},
		{"negative overlap", Config{MaxChars: 100, OverlapChars: -1}, true},
		{"negative min chunk", Config{MaxChars: 100, OverlapChars: 10, MinChunkChars: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	c := mustNew(t, DefaultConfig())

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\n  \t  "))
	assert.Empty(t, c.Split("\r\n\r\n"))
}

func TestSplit_ShortTextDropped(t *testing.T) {
	c := mustNew(t, DefaultConfig())

	// Below MinChunkChars (200) the coalesced buffer is discarded
	chunks := c.Split("A short note about mitochondria.")
	assert.Empty(t, chunks)
}

func TestSplit_CoalescesParagraphs(t *testing.T) {
	c := mustNew(t, Config{MaxChars: 50, OverlapChars: 0, MinChunkChars: 5})

	chunks := c.Split("aaaa\n\nbbbb")
	require.Len(t, chunks, 1)
	assert.Equal(t, "aaaa\n\nbbbb", chunks[0])
}

func TestSplit_FlushesWhenBufferFull(t *testing.T) {
	c := mustNew(t, Config{MaxChars: 10, OverlapChars: 0, MinChunkChars: 0})

	// 6 + 6 + 2 for the joiner exceeds 10, so the paragraphs stay separate
	chunks := c.Split("aaaaaa\n\nbbbbbb")
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaaaa", chunks[0])
	assert.Equal(t, "bbbbbb", chunks[1])
}

func TestSplit_NormalizesLineEndings(t *testing.T) {
	c := mustNew(t, Config{MaxChars: 800, OverlapChars: 0, MinChunkChars: 0})

	chunks := c.Split("para1\r\n\r\n\r\n\r\npara2")
	require.Len(t, chunks, 1)
	assert.Equal(t, "para1\n\npara2", chunks[0])
}

func TestSplit_WindowSplitsLongParagraph(t *testing.T) {
	c := mustNew(t, Config{MaxChars: 10, OverlapChars: 4, MinChunkChars: 0})

	// 25 runes, step = 10-4 = 6: windows start at 0, 6, 12, 18, 24
	chunks := c.Split(strings.Repeat("a", 25))
	require.Len(t, chunks, 5)
	assert.Equal(t, "aaaaaaaaaa", chunks[0])
	for i, chunk := range chunks {
		assert.LessOrEqual(t, runeLen(chunk), 10, "chunk %d exceeds ceiling", i)
	}
}

func TestSplit_HardSplitKeepsShortTail(t *testing.T) {
	c := mustNew(t, Config{MaxChars: 10, OverlapChars: 0, MinChunkChars: 8})

	// Window-split slices bypass the min-chunk filter: the 2-rune tail of
	// the oversized paragraph survives even though it is below the minimum
	chunks := c.Split(strings.Repeat("a", 12))
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaaaaaaaa", chunks[0])
	assert.Equal(t, "aa", chunks[1])
}

func TestSplit_OverlapPrefix(t *testing.T) {
	c := mustNew(t, DefaultConfig())

	first := strings.Repeat("a", 400)
	second := strings.Repeat("b", 400)
	chunks := c.Split(first + "\n\n" + second)

	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	// The second chunk carries the last 120 runes of the first as a prefix
	assert.Equal(t, strings.Repeat("a", 120)+"\n\n"+second, chunks[1])
}

func TestSplit_OverlapTruncatesFromFront(t *testing.T) {
	c := mustNew(t, Config{MaxChars: 100, OverlapChars: 30, MinChunkChars: 0})

	first := strings.Repeat("a", 90)
	second := strings.Repeat("b", 90)
	chunks := c.Split(first + "\n\n" + second)

	require.Len(t, chunks, 2)
	// 30 overlap + 2 joiner + 90 = 122 > 100: truncated to the trailing
	// 100 runes, so the current chunk's content is fully retained
	assert.Equal(t, 100, runeLen(chunks[1]))
	assert.True(t, strings.HasSuffix(chunks[1], second))
}

func TestSplit_UnicodeSafe(t *testing.T) {
	c := mustNew(t, Config{MaxChars: 10, OverlapChars: 4, MinChunkChars: 0})

	chunks := c.Split(strings.Repeat("é", 25))
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8", i)
		assert.LessOrEqual(t, runeLen(chunk), 10, "chunk %d exceeds ceiling", i)
	}
}

func TestSplit_AllChunksWithinCeiling(t *testing.T) {
	c := mustNew(t, DefaultConfig())

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString(strings.Repeat("lorem ipsum dolor sit amet ", 10+i*3))
		sb.WriteString("\n\n")
	}

	chunks := c.Split(sb.String())
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, runeLen(chunk), DefaultMaxChars, "chunk %d exceeds ceiling", i)
		assert.NotEmpty(t, strings.TrimSpace(chunk), "chunk %d is blank", i)
	}
}
