package alto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteText(t *testing.T) {
	doc := parseSample(t)
	var buf bytes.Buffer
	require.NoError(t, WriteText(doc, &buf))
	require.Equal(t, "Hallo Welt\nzweite\n", buf.String())
}

func TestWriteTextHyphenation(t *testing.T) {
	doc, err := Parse(strings.NewReader(
		`<alto xmlns="http://www.loc.gov/standards/alto/ns-v2#">
			<TextLine HPOS="0" VPOS="0" WIDTH="100" HEIGHT="20">
				<String CONTENT="ein" WC="0.9"/>
				<String CONTENT="Wo-" WC="0.9" SUBS_TYPE="HypPart1" SUBS_CONTENT="Wort"/>
			</TextLine>
			<TextLine HPOS="0" VPOS="30" WIDTH="100" HEIGHT="20">
				<String CONTENT="rt" WC="0.9" SUBS_TYPE="HypPart2" SUBS_CONTENT="Wort"/>
				<String CONTENT="folgt" WC="0.9"/>
			</TextLine>
		</alto>`), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(doc, &buf))
	require.Equal(t, "ein Wort\nfolgt\n", buf.String())
}

func TestWriteTextMalformedHyphenPair(t *testing.T) {
	doc, err := Parse(strings.NewReader(
		`<alto xmlns="http://www.loc.gov/standards/alto/ns-v2#">
			<TextLine HPOS="0" VPOS="0" WIDTH="100" HEIGHT="20">
				<String CONTENT="rt" WC="0.9" SUBS_TYPE="HypPart2" SUBS_CONTENT="Wort"/>
			</TextLine>
		</alto>`), nil)
	require.NoError(t, err)
	require.Error(t, WriteText(doc, &bytes.Buffer{}))
}

func TestWriteIllustrations(t *testing.T) {
	doc := parseSample(t)
	var buf bytes.Buffer
	require.NoError(t, WriteIllustrations(doc, &buf))
	require.Equal(t, "illus_1=300,400,500,50\n", buf.String())
}

func TestConfidence(t *testing.T) {
	doc := parseSample(t)
	score, count := Confidence(doc)
	require.Equal(t, 3, count)
	// (0.45 + 0.45 + 0.91) / 3 * 100 rounded to 2 decimals
	require.Equal(t, 60.33, score)
}

func TestConfidenceNoStrings(t *testing.T) {
	doc, err := Parse(strings.NewReader(
		`<alto xmlns="http://www.loc.gov/standards/alto/ns-v2#"><Layout/></alto>`), nil)
	require.NoError(t, err)
	score, count := Confidence(doc)
	require.Equal(t, 0.0, score)
	require.Equal(t, 0, count)
}
