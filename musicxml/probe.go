package musicxml

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Shape is the raw structural summary of a document, gathered from the DOM
// before typed decoding. It feeds early shape diagnostics.
type Shape struct {
	PartCount int
	// VoiceIDs holds the distinct voice ids per part, sorted, in part order.
	VoiceIDs [][]string
	Measures int
	Notes    int
}

var notesExpr = xpath.MustCompile("count(//note)")

// Probe inspects raw MusicXML without building the full object model.
func Probe(data []byte) (*Shape, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing MusicXML: %w", err)
	}

	if xmlquery.FindOne(doc, "//score-partwise") == nil {
		return nil, fmt.Errorf("document is not a score-partwise MusicXML file")
	}

	shape := &Shape{}
	parts := xmlquery.Find(doc, "//score-partwise/part")
	shape.PartCount = len(parts)

	for _, part := range parts {
		ids := make(map[string]bool)
		for _, v := range xmlquery.Find(part, ".//voice") {
			ids[v.InnerText()] = true
		}
		var sorted []string
		for id := range ids {
			sorted = append(sorted, id)
		}
		sort.Strings(sorted)
		shape.VoiceIDs = append(shape.VoiceIDs, sorted)

		measures := len(xmlquery.Find(part, "./measure"))
		if measures > shape.Measures {
			shape.Measures = measures
		}
	}

	nav := xmlquery.CreateXPathNavigator(doc)
	if n, ok := notesExpr.Evaluate(nav).(float64); ok {
		shape.Notes = int(n)
	}

	return shape, nil
}
