package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/alecthomas/chroma/v2/styles"
)

// ledgerStyle is the chroma style used for the ledger preview.
const ledgerStyle = "ledgerloop"

func init() {
	styles.Register(chroma.MustNewStyle(ledgerStyle, chroma.StyleEntries{
		chroma.Text:              "#dfe6e9",
		chroma.Comment:           "#636e72 italic",
		chroma.Punctuation:       "#b2bec3",
		chroma.Keyword:           "#a29bfe",
		chroma.NameTag:           "#a29bfe",
		chroma.LiteralString:     "#00b894",
		chroma.LiteralStringDoc:  "#fdcb6e",
		chroma.GenericEmph:       "italic",
		chroma.GenericStrong:     "bold",
		chroma.GenericHeading:    "#6c5ce7 bold",
		chroma.GenericSubheading: "#a29bfe bold",
		chroma.GenericDeleted:    "#d63031",
		chroma.GenericInserted:   "#00b894",
		chroma.Background:        "",
	}))
}

// highlightLedger renders ledger markdown for the terminal, falling back to the plain text.
func highlightLedger(src string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, src, "markdown", "terminal256", ledgerStyle); err != nil {
		return src
	}
	return b.String()
}
