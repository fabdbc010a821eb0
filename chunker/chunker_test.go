package chunker

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Sentences(t *testing.T) {
	chunks := Split("Hello world. How are you? Fine!")
	assert.Equal(t, []string{"Hello world.", "How are you?", "Fine!"}, chunks)
}

func TestSplit_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t \n"} {
		chunks := Split(input)
		require.NotNil(t, chunks, "input %q", input)
		assert.Empty(t, chunks, "input %q", input)
	}
}

func TestSplit_NoTerminator(t *testing.T) {
	assert.Equal(t, []string{"just a fragment"}, Split("  just a fragment \n"))
}

func TestSplit_WhitespaceRunsAreSeparatorsOnly(t *testing.T) {
	chunks := Split("First one.\n\n\tSecond one!   Third?\r\nFourth")
	assert.Equal(t, []string{"First one.", "Second one!", "Third?", "Fourth"}, chunks)
}

func TestSplit_PunctuationWithoutWhitespaceDoesNotSplit(t *testing.T) {
	chunks := Split("Version 1.2.3 is out. See example.com for details.")
	assert.Equal(t, []string{"Version 1.2.3 is out.", "See example.com for details."}, chunks)
}

func TestSplit_RepeatedPunctuation(t *testing.T) {
	chunks := Split("Wait... What?! Yes.")
	assert.Equal(t, []string{"Wait...", "What?!", "Yes."}, chunks)
}

func TestSplit_Unicode(t *testing.T) {
	chunks := Split("Ça va? Très bien. Größe!")
	assert.Equal(t, []string{"Ça va?", "Très bien.", "Größe!"}, chunks)
}

func TestSplit_UnicodeSeparators(t *testing.T) {
	separators := map[string]string{
		"no-break space":      "\u00a0",
		"em space":            "\u2003",
		"thin space":          "\u2009",
		"ideographic space":   "\u3000",
		"vertical tab":        "\v",
		"next line":           "\u0085",
		"line separator":      "\u2028",
		"paragraph separator": "\u2029",
		"unit separator":      "\x1f",
		"nbsp then newline":   "\u00a0\n",
	}
	for name, sep := range separators {
		t.Run(name, func(t *testing.T) {
			chunks := Split("First sentence." + sep + "Second sentence.")
			assert.Equal(t, []string{"First sentence.", "Second sentence."}, chunks)
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := "One. Two? Three! Four."
	assert.Equal(t, Split(text), Split(text))
}

func TestSplit_ChunksEndAtTerminators(t *testing.T) {
	texts := []string{
		"Alpha beta. Gamma delta? Epsilon!",
		"a. b. c. d. e.",
		"No terminator here",
		"Mixed!  spacing.\tand\nlines? end",
	}
	for _, text := range texts {
		chunks := Split(text)
		require.NotEmpty(t, chunks)

		for i, chunk := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(chunk))
			assert.Equal(t, strings.TrimSpace(chunk), chunk, "chunk should carry no outer whitespace")
			if i < len(chunks)-1 {
				last := chunk[len(chunk)-1]
				assert.Contains(t, ".!?", string(last), "chunk %q should end at a terminator", chunk)
			}
		}

		// Non-whitespace content is preserved in order.
		assert.Equal(t, stripSpace(text), stripSpace(strings.Join(chunks, " ")))
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
