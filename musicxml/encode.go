package musicxml

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/jsphweid/satbsplit/model"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">
`

// Encode writes the score as a score-partwise MusicXML document.
func Encode(w io.Writer, s *model.Score) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xmlHeader); err != nil {
		return err
	}

	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "score-partwise"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: "3.1"}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	if err := encodeHeader(enc, s); err != nil {
		return err
	}

	for _, part := range s.Parts {
		if err := encodePart(enc, part, annotateSpanners(s, part)); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile encodes the score to the file at path.
func WriteFile(path string, s *model.Score) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Encode(f, s)
}

func encodeHeader(enc *xml.Encoder, s *model.Score) error {
	if s.WorkTitle != "" {
		if err := encodeNamed(enc, "work", xmlWork{WorkTitle: s.WorkTitle}); err != nil {
			return err
		}
	}
	if s.MovementTitle != "" {
		if err := encodeNamed(enc, "movement-title", s.MovementTitle); err != nil {
			return err
		}
	}
	var creators []xmlCreator
	if s.Composer != "" {
		creators = append(creators, xmlCreator{Type: "composer", Value: s.Composer})
	}
	if s.Lyricist != "" {
		creators = append(creators, xmlCreator{Type: "lyricist", Value: s.Lyricist})
	}
	if len(creators) > 0 {
		if err := encodeNamed(enc, "identification", xmlIdentification{Creators: creators}); err != nil {
			return err
		}
	}

	pl := xmlPartList{}
	for i, part := range s.Parts {
		id := part.ID
		if id == "" {
			id = fmt.Sprintf("P%d", i+1)
		}
		pl.ScoreParts = append(pl.ScoreParts, xmlScorePart{ID: id, PartName: part.Name})
	}
	return encodeNamed(enc, "part-list", pl)
}

func encodeNamed(enc *xml.Encoder, name string, v any) error {
	return enc.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: name}})
}

// spannerAnnotations index slur endpoints and wedge events by note and
// measure so the encoder can emit start/stop events in document order.
type spannerAnnotations struct {
	slurStart map[*model.Note][]int
	slurStop  map[*model.Note][]int
	wedges    map[int][]wedgeEvent // keyed by measure number
}

type wedgeEvent struct {
	offset model.Beats
	typ    string // "crescendo", "diminuendo" or "stop"
	number int
}

// annotateSpanners collects the events of the spanners that start in part.
// Wedge events are keyed by measure number, which every part shares, so
// each part is annotated with its own spanners only.
func annotateSpanners(s *model.Score, part *model.Part) *spannerAnnotations {
	ann := &spannerAnnotations{
		slurStart: make(map[*model.Note][]int),
		slurStop:  make(map[*model.Note][]int),
		wedges:    make(map[int][]wedgeEvent),
	}

	inPart := make(map[*model.Note]bool)
	for _, n := range (&model.Score{Parts: []*model.Part{part}}).AllNotes() {
		inPart[n] = true
	}

	for _, sp := range s.Spanners {
		first, last := sp.First(), sp.Last()
		if first == nil || last == nil || !inPart[first] {
			continue
		}
		num := sp.Number
		if num == 0 {
			num = 1
		}
		switch sp.Kind {
		case model.SpannerSlur:
			ann.slurStart[first] = append(ann.slurStart[first], num)
			ann.slurStop[last] = append(ann.slurStop[last], num)
		case model.SpannerCrescendo, model.SpannerDiminuendo:
			typ := "crescendo"
			if sp.Kind == model.SpannerDiminuendo {
				typ = "diminuendo"
			}
			ann.wedges[first.MeasureNum] = append(ann.wedges[first.MeasureNum],
				wedgeEvent{offset: first.Offset, typ: typ, number: num})
			ann.wedges[last.MeasureNum] = append(ann.wedges[last.MeasureNum],
				wedgeEvent{offset: last.Offset, typ: "stop", number: num})
		}
	}
	return ann
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func lcm64(a, b int64) int64 {
	return a / gcd64(a, b) * b
}

// partDivisions computes the smallest divisions-per-quarter that expresses
// every offset and duration in the part as an integer.
func partDivisions(part *model.Part, ann *spannerAnnotations) int {
	div := int64(1)
	add := func(b model.Beats) {
		if b.Den > 0 {
			div = lcm64(div, b.Den)
		}
	}
	for _, m := range part.Measures {
		add(m.Duration)
		for _, v := range m.Voices {
			for _, n := range v.Notes {
				add(n.Offset)
				add(n.Duration)
			}
		}
		for _, d := range m.Dynamics {
			add(d.Offset)
		}
		for _, t := range m.Tempos {
			add(t.Offset)
		}
		for _, r := range m.Rehearsals {
			add(r.Offset)
		}
		for _, w := range ann.wedges[m.Number] {
			add(w.offset)
		}
	}
	return int(div)
}

func divCount(b model.Beats, div int) int {
	if b.Den == 0 {
		return 0
	}
	return int(b.Num * int64(div) / b.Den)
}

// dirEvent is a direction to interleave with the first voice's notes.
type dirEvent struct {
	offset model.Beats
	rank   int // stable category order at equal offsets
	dir    xmlDirection
}

func encodePart(enc *xml.Encoder, part *model.Part, ann *spannerAnnotations) error {
	id := part.ID
	if id == "" {
		id = "P1"
	}
	start := xml.StartElement{
		Name: xml.Name{Local: "part"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "id"}, Value: id}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	div := partDivisions(part, ann)
	for i, measure := range part.Measures {
		if err := encodeMeasure(enc, measure, div, i == 0, ann); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func encodeMeasure(enc *xml.Encoder, m *model.Measure, div int, first bool, ann *spannerAnnotations) error {
	start := xml.StartElement{
		Name: xml.Name{Local: "measure"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "number"}, Value: strconv.Itoa(m.Number)}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if m.Layout != nil {
		p := xmlPrint{}
		if m.Layout.NewSystem {
			p.NewSystem = "yes"
		}
		if m.Layout.NewPage {
			p.NewPage = "yes"
		}
		if err := enc.Encode(p); err != nil {
			return err
		}
	}

	if err := encodeAttributes(enc, m, div, first); err != nil {
		return err
	}

	events := collectDirEvents(m, div, ann)

	for vi, voice := range m.Voices {
		if vi > 0 {
			// Return to the measure start for the next voice.
			if err := enc.Encode(xmlBackup{Duration: divCount(m.Duration, div)}); err != nil {
				return err
			}
		}
		pos := model.Beats{}
		for _, note := range voice.Notes {
			if vi == 0 {
				var err error
				events, err = flushDirEvents(enc, events, note.Offset, pos, div)
				if err != nil {
					return err
				}
			}
			if pos.Less(note.Offset) && !note.Grace {
				gap := note.Offset.Sub(pos)
				if err := enc.Encode(xmlForward{Duration: divCount(gap, div)}); err != nil {
					return err
				}
				pos = note.Offset
			}
			if err := encodeNote(enc, note, voice.ID, m, div, ann); err != nil {
				return err
			}
			if !note.Grace {
				pos = pos.Add(note.Duration)
			}
		}
		if vi == 0 {
			var err error
			events, err = flushDirEvents(enc, events, m.Duration.Add(model.Whole(1)), pos, div)
			if err != nil {
				return err
			}
		}
		// Top up the voice to the full measure so backup stays aligned.
		if pos.Less(m.Duration) && len(m.Voices) > 1 {
			if err := enc.Encode(xmlForward{Duration: divCount(m.Duration.Sub(pos), div)}); err != nil {
				return err
			}
		}
	}

	// A measure with no voices at all still flushes its directions.
	if len(m.Voices) == 0 {
		if _, err := flushDirEvents(enc, events, m.Duration.Add(model.Whole(1)), model.Beats{}, div); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func encodeAttributes(enc *xml.Encoder, m *model.Measure, div int, first bool) error {
	var attr xmlAttributes
	has := false
	if first {
		attr.Divisions = div
		has = true
	}
	if m.Attr != nil {
		if m.Attr.Key != nil {
			attr.Key = &xmlKey{Fifths: m.Attr.Key.Fifths, Mode: m.Attr.Key.Mode}
			has = true
		}
		if m.Attr.Time != nil {
			attr.Time = &xmlTime{Beats: m.Attr.Time.Beats, BeatType: m.Attr.Time.BeatType}
			has = true
		}
		if m.Attr.Staves > 1 {
			attr.Staves = m.Attr.Staves
			has = true
		}
		for _, c := range m.Attr.Clefs {
			xc := xmlClef{Sign: c.Sign, Line: c.Line, OctaveChange: c.OctaveChange}
			if len(m.Attr.Clefs) > 1 {
				xc.Number = c.Staff
			}
			attr.Clefs = append(attr.Clefs, xc)
			has = true
		}
	}
	if !has {
		return nil
	}
	return enc.Encode(attr)
}

func collectDirEvents(m *model.Measure, div int, ann *spannerAnnotations) []dirEvent {
	var events []dirEvent

	for _, t := range m.Tempos {
		dt := xmlDirectionType{}
		if t.PerMinute > 0 {
			dt.Metronome = &xmlMetronome{BeatUnit: t.BeatUnit, PerMinute: strconv.Itoa(t.PerMinute)}
		} else {
			dt.Words = []string{t.Text}
		}
		events = append(events, dirEvent{offset: t.Offset, rank: 0, dir: xmlDirection{
			Placement: "above",
			Types:     []xmlDirectionType{dt},
		}})
	}
	for _, r := range m.Rehearsals {
		events = append(events, dirEvent{offset: r.Offset, rank: 1, dir: xmlDirection{
			Placement: "above",
			Types:     []xmlDirectionType{{Rehearsal: []string{r.Text}}},
		}})
	}
	for _, d := range m.Dynamics {
		events = append(events, dirEvent{offset: d.Offset, rank: 2, dir: xmlDirection{
			Placement: d.Placement,
			Staff:     d.Staff,
			Types: []xmlDirectionType{{Dynamics: &xmlDynamics{
				Marks: []xmlDynamicsMark{{XMLName: xml.Name{Local: d.Value}}},
			}}},
		}})
	}
	for _, w := range ann.wedges[m.Number] {
		rank := 3
		if w.typ == "stop" {
			rank = 4
		}
		events = append(events, dirEvent{offset: w.offset, rank: rank, dir: xmlDirection{
			Types: []xmlDirectionType{{Wedge: &xmlWedge{Type: w.typ, Number: w.number}}},
		}})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if c := events[i].offset.Cmp(events[j].offset); c != 0 {
			return c < 0
		}
		return events[i].rank < events[j].rank
	})
	return events
}

// flushDirEvents emits every pending direction up to (and including) limit,
// using <offset> to shift a direction from the current position.
func flushDirEvents(enc *xml.Encoder, events []dirEvent, limit, pos model.Beats, div int) ([]dirEvent, error) {
	i := 0
	for ; i < len(events); i++ {
		ev := events[i]
		if limit.Less(ev.offset) {
			break
		}
		dir := ev.dir
		dir.Offset = divCount(ev.offset.Sub(pos), div)
		if err := enc.Encode(dir); err != nil {
			return nil, err
		}
	}
	return events[i:], nil
}

func encodeNote(enc *xml.Encoder, note *model.Note, voiceID string, m *model.Measure, div int, ann *spannerAnnotations) error {
	base := xmlNote{
		Duration: divCount(note.Duration, div),
		Voice:    voiceID,
		Type:     note.Type,
	}
	if note.Grace {
		base.Grace = &xmlEmpty{}
		base.Duration = 0
	}
	for i := 0; i < note.Dots; i++ {
		base.Dots = append(base.Dots, xmlEmpty{})
	}

	if note.Rest {
		rest := &xmlRest{}
		if note.Type == "" && note.Duration.Cmp(m.Duration) == 0 {
			rest.Measure = "yes"
		}
		base.Rest = rest
		return enc.Encode(base)
	}

	var notations *xmlNotations
	addNotation := func() *xmlNotations {
		if notations == nil {
			notations = &xmlNotations{}
		}
		return notations
	}

	switch note.Tie {
	case "start":
		base.Ties = []xmlTie{{Type: "start"}}
		addNotation().Tied = []xmlTied{{Type: "start"}}
	case "stop":
		base.Ties = []xmlTie{{Type: "stop"}}
		addNotation().Tied = []xmlTied{{Type: "stop"}}
	case "continue":
		base.Ties = []xmlTie{{Type: "stop"}, {Type: "start"}}
		addNotation().Tied = []xmlTied{{Type: "stop"}, {Type: "start"}}
	}

	for _, num := range ann.slurStop[note] {
		addNotation().Slurs = append(addNotation().Slurs, xmlSlur{Type: "stop", Number: num})
	}
	for _, num := range ann.slurStart[note] {
		addNotation().Slurs = append(addNotation().Slurs, xmlSlur{Type: "start", Number: num})
	}

	var lyrics []xmlLyric
	for _, l := range note.Lyrics {
		lyrics = append(lyrics, xmlLyric{
			Number:   strconv.Itoa(l.Number),
			Syllabic: l.Syllabic,
			Text:     xmlLyricText{Value: l.Text},
		})
	}

	for i, p := range note.Pitches {
		n := base
		n.Pitch = &xmlPitch{Step: p.Step, Alter: p.Alter, Octave: p.Octave}
		if i == 0 {
			n.Notations = notations
			n.Lyrics = lyrics
		} else {
			n.Chord = &xmlEmpty{}
		}
		if err := enc.Encode(n); err != nil {
			return err
		}
	}
	return nil
}
