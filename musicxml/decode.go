package musicxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jsphweid/satbsplit/model"
)

// Decode parses a score-partwise MusicXML document into a model Score.
func Decode(r io.Reader) (*model.Score, error) {
	dec := xml.NewDecoder(r)
	score := &model.Score{}

	partNames := make(map[string]string)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing MusicXML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "score-timewise":
			return nil, fmt.Errorf("score-timewise documents are not supported")
		case "work":
			var w xmlWork
			if err := dec.DecodeElement(&w, &start); err != nil {
				return nil, err
			}
			score.WorkTitle = w.WorkTitle
		case "movement-title":
			var title string
			if err := dec.DecodeElement(&title, &start); err != nil {
				return nil, err
			}
			score.MovementTitle = strings.TrimSpace(title)
		case "identification":
			var id xmlIdentification
			if err := dec.DecodeElement(&id, &start); err != nil {
				return nil, err
			}
			for _, c := range id.Creators {
				switch c.Type {
				case "composer":
					score.Composer = strings.TrimSpace(c.Value)
				case "lyricist", "poet":
					score.Lyricist = strings.TrimSpace(c.Value)
				}
			}
		case "part-list":
			var pl xmlPartList
			if err := dec.DecodeElement(&pl, &start); err != nil {
				return nil, err
			}
			for _, sp := range pl.ScoreParts {
				partNames[sp.ID] = strings.TrimSpace(sp.PartName)
			}
		case "part":
			id := attrValue(start, "id")
			part, spanners, err := decodePart(dec, id)
			if err != nil {
				return nil, err
			}
			part.Name = partNames[id]
			score.Parts = append(score.Parts, part)
			score.Spanners = append(score.Spanners, spanners...)
		}
	}

	if len(score.Parts) == 0 {
		return nil, fmt.Errorf("document contains no parts")
	}
	return score, nil
}

// ReadFile decodes the MusicXML file at path.
func ReadFile(path string) (*model.Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// partDecoder accumulates per-part decoding state: the running position
// counter, open slur/tie/wedge constructions, and the finished spanners.
type partDecoder struct {
	part      *model.Part
	divisions int
	time      *model.TimeSignature

	openSlurs  map[int]*openSlur
	openTies   map[tieKey]*model.Note
	openWedges map[int]*openWedge
	spanners   []*model.Spanner

	// closedWedges hold start/stop pairs until the whole part is decoded;
	// endpoint notes can only be chosen once every note of the stop
	// measure exists.
	closedWedges []closedWedge

	// staffVoices remembers first-appearance order of voice ids per staff
	// so staff-scoped wedges can pick a home voice.
	staffVoices map[int][]string
}

type openSlur struct {
	spanner *model.Spanner
	voice   string
}

type tieKey struct {
	voice string
	midi  uint8
}

type openWedge struct {
	kind       string
	voice      string
	staff      int
	measureIdx int
	offset     model.Beats
}

type closedWedge struct {
	open       *openWedge
	stopIdx    int
	stopOffset model.Beats
	number     int
}

func decodePart(dec *xml.Decoder, id string) (*model.Part, []*model.Spanner, error) {
	pd := &partDecoder{
		part:        &model.Part{ID: id},
		divisions:   1,
		openSlurs:   make(map[int]*openSlur),
		openTies:    make(map[tieKey]*model.Note),
		openWedges:  make(map[int]*openWedge),
		staffVoices: make(map[int][]string),
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("parsing part %v: %w", id, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "measure" {
				if err := pd.decodeMeasure(dec, &t); err != nil {
					return nil, nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "part" {
				for _, cw := range pd.closedWedges {
					pd.resolveWedge(cw.open, cw.stopIdx, cw.stopOffset, cw.number)
				}
				return pd.part, pd.spanners, nil
			}
		}
	}
}

func (pd *partDecoder) decodeMeasure(dec *xml.Decoder, start *xml.StartElement) error {
	num, _ := strconv.Atoi(attrValue(*start, "number"))
	measure := &model.Measure{Number: num}
	pd.part.Measures = append(pd.part.Measures, measure)
	measureIdx := len(pd.part.Measures) - 1

	var cur int              // running position in divisions
	var lastNote *model.Note // for <chord/> merging

	voiceFor := func(id string) *model.Voice {
		if id == "" {
			id = "1"
		}
		if v := measure.VoiceByID(id); v != nil {
			return v
		}
		v := &model.Voice{ID: id}
		measure.Voices = append(measure.Voices, v)
		return v
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("parsing measure %d: %w", num, err)
		}

		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == "measure" {
				pd.finishMeasure(measure)
				return nil
			}
			continue
		case xml.StartElement:
			switch t.Name.Local {
			case "attributes":
				var attr xmlAttributes
				if err := dec.DecodeElement(&attr, &t); err != nil {
					return err
				}
				pd.applyAttributes(measure, attr)
			case "note":
				var xn xmlNote
				if err := dec.DecodeElement(&xn, &t); err != nil {
					return err
				}
				lastNote = pd.applyNote(measure, voiceFor, xn, &cur, lastNote)
			case "backup":
				var b xmlBackup
				if err := dec.DecodeElement(&b, &t); err != nil {
					return err
				}
				cur -= b.Duration
				lastNote = nil
			case "forward":
				var f xmlForward
				if err := dec.DecodeElement(&f, &t); err != nil {
					return err
				}
				cur += f.Duration
				lastNote = nil
			case "direction":
				var d xmlDirection
				if err := dec.DecodeElement(&d, &t); err != nil {
					return err
				}
				pd.applyDirection(measure, measureIdx, d, cur)
			case "print":
				var p xmlPrint
				if err := dec.DecodeElement(&p, &t); err != nil {
					return err
				}
				if p.NewSystem == "yes" || p.NewPage == "yes" {
					measure.Layout = &model.LayoutMark{
						NewSystem: p.NewSystem == "yes",
						NewPage:   p.NewPage == "yes",
					}
				}
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		}
	}
}

func (pd *partDecoder) applyAttributes(measure *model.Measure, attr xmlAttributes) {
	if measure.Attr == nil {
		measure.Attr = &model.Attributes{}
	}
	if attr.Divisions > 0 {
		pd.divisions = attr.Divisions
		measure.Attr.Divisions = attr.Divisions
	}
	if attr.Time != nil {
		ts := model.TimeSignature{Beats: attr.Time.Beats, BeatType: attr.Time.BeatType}
		pd.time = &ts
		measure.Attr.Time = &ts
	}
	if attr.Key != nil {
		measure.Attr.Key = &model.KeySignature{Fifths: attr.Key.Fifths, Mode: attr.Key.Mode}
	}
	if attr.Staves > 0 {
		measure.Attr.Staves = attr.Staves
	}
	for _, c := range attr.Clefs {
		staff := c.Number
		if staff == 0 {
			staff = 1
		}
		measure.Attr.Clefs = append(measure.Attr.Clefs, model.Clef{
			Sign:         c.Sign,
			Line:         c.Line,
			OctaveChange: c.OctaveChange,
			Staff:        staff,
		})
	}
}

func (pd *partDecoder) applyNote(measure *model.Measure,
	voiceFor func(string) *model.Voice, xn xmlNote, cur *int,
	lastNote *model.Note) *model.Note {

	// A <chord/> note shares the previous note's offset: fold its pitch in.
	if xn.Chord != nil && lastNote != nil {
		if xn.Pitch != nil {
			lastNote.Pitches = append(lastNote.Pitches, model.Pitch{
				Step:   xn.Pitch.Step,
				Alter:  xn.Pitch.Alter,
				Octave: xn.Pitch.Octave,
			})
		}
		return lastNote
	}

	note := &model.Note{
		Offset:     model.B(int64(*cur), int64(pd.divisions)),
		Duration:   model.B(int64(xn.Duration), int64(pd.divisions)),
		Grace:      xn.Grace != nil,
		Rest:       xn.Rest != nil,
		Type:       xn.Type,
		Dots:       len(xn.Dots),
		MeasureNum: measure.Number,
	}
	if xn.Pitch != nil {
		note.Pitches = append(note.Pitches, model.Pitch{
			Step:   xn.Pitch.Step,
			Alter:  xn.Pitch.Alter,
			Octave: xn.Pitch.Octave,
		})
	}
	for _, l := range xn.Lyrics {
		n, _ := strconv.Atoi(l.Number)
		if n == 0 {
			n = 1
		}
		note.Lyrics = append(note.Lyrics, &model.Lyric{
			Text:     l.Text.Value,
			Syllabic: l.Syllabic,
			Number:   n,
		})
	}

	voice := voiceFor(xn.Voice)
	voice.Notes = append(voice.Notes, note)
	pd.recordStaffVoice(xn.Staff, voice.ID)

	pd.applyTies(note, voice.ID, xn)
	pd.applySlurs(note, voice.ID, xn)

	if !note.Grace {
		*cur += xn.Duration
	}
	return note
}

func (pd *partDecoder) recordStaffVoice(staff int, voiceID string) {
	if staff == 0 {
		staff = 1
	}
	for _, v := range pd.staffVoices[staff] {
		if v == voiceID {
			return
		}
	}
	pd.staffVoices[staff] = append(pd.staffVoices[staff], voiceID)
}

// applyTies builds tie spanners from <tie> elements (or <tied> notations when
// the sound elements are missing), keyed per voice and pitch.
func (pd *partDecoder) applyTies(note *model.Note, voiceID string, xn xmlNote) {
	types := make(map[string]bool)
	for _, t := range xn.Ties {
		types[t.Type] = true
	}
	if len(types) == 0 && xn.Notations != nil {
		for _, t := range xn.Notations.Tied {
			types[t.Type] = true
		}
	}
	if len(types) == 0 || len(note.Pitches) == 0 {
		return
	}

	switch {
	case types["start"] && types["stop"]:
		note.Tie = "continue"
	case types["start"]:
		note.Tie = "start"
	case types["stop"]:
		note.Tie = "stop"
	}

	key := tieKey{voice: voiceID, midi: note.Pitches[0].Midi()}
	if types["stop"] {
		if from, ok := pd.openTies[key]; ok {
			pd.spanners = append(pd.spanners, &model.Spanner{
				Kind:  model.SpannerTie,
				Notes: []*model.Note{from, note},
			})
			delete(pd.openTies, key)
		}
	}
	if types["start"] {
		pd.openTies[key] = note
	}
}

// applySlurs opens and closes slur spanners. While a slur is open, every
// note of its voice is appended so middle notes are distinguishable from
// endpoints later.
func (pd *partDecoder) applySlurs(note *model.Note, voiceID string, xn xmlNote) {
	for _, open := range pd.openSlurs {
		if open.voice == voiceID && !containsNote(open.spanner.Notes, note) {
			open.spanner.Notes = append(open.spanner.Notes, note)
		}
	}

	if xn.Notations == nil {
		return
	}
	for _, sl := range xn.Notations.Slurs {
		num := sl.Number
		if num == 0 {
			num = 1
		}
		switch sl.Type {
		case "start":
			sp := &model.Spanner{Kind: model.SpannerSlur, Number: num, Notes: []*model.Note{note}}
			pd.openSlurs[num] = &openSlur{spanner: sp, voice: voiceID}
		case "stop":
			open, ok := pd.openSlurs[num]
			if !ok {
				continue
			}
			if !containsNote(open.spanner.Notes, note) {
				// Cross-voice slur: the stop note lives in another
				// voice. Keep it as the final endpoint; pruning will
				// discard the spanner everywhere.
				open.spanner.Notes = append(open.spanner.Notes, note)
			}
			pd.spanners = append(pd.spanners, open.spanner)
			delete(pd.openSlurs, num)
		}
	}
}

func containsNote(notes []*model.Note, n *model.Note) bool {
	for _, x := range notes {
		if x == n {
			return true
		}
	}
	return false
}

func (pd *partDecoder) applyDirection(measure *model.Measure, measureIdx int, d xmlDirection, cur int) {
	off := cur + d.Offset
	if off < 0 {
		off = 0
	}
	offset := model.B(int64(off), int64(pd.divisions))

	for _, dt := range d.Types {
		if dt.Dynamics != nil {
			for _, m := range dt.Dynamics.Marks {
				measure.Dynamics = append(measure.Dynamics, &model.Dynamic{
					Value:     m.XMLName.Local,
					Offset:    offset,
					Placement: d.Placement,
					Staff:     d.Staff,
				})
			}
		}
		if dt.Wedge != nil {
			pd.applyWedge(measureIdx, d, *dt.Wedge, offset)
		}
		if dt.Metronome != nil {
			per, _ := strconv.Atoi(strings.TrimSpace(dt.Metronome.PerMinute))
			measure.Tempos = append(measure.Tempos, &model.Tempo{
				Offset:    offset,
				BeatUnit:  dt.Metronome.BeatUnit,
				PerMinute: per,
			})
		}
		for _, w := range dt.Words {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			// Words directions ride along as tempo-style text marks so
			// expression text survives the split unchanged.
			measure.Tempos = append(measure.Tempos, &model.Tempo{Offset: offset, Text: w})
		}
		for _, r := range dt.Rehearsal {
			r = strings.TrimSpace(r)
			if r != "" {
				measure.Rehearsals = append(measure.Rehearsals, &model.RehearsalMark{
					Offset: offset,
					Text:   r,
				})
			}
		}
	}
}

// applyWedge turns wedge start/stop direction pairs into crescendo or
// diminuendo spanners. Endpoints are the first note of the wedge's home
// voice at or after the start offset and the last note at or before the
// stop offset.
func (pd *partDecoder) applyWedge(measureIdx int, d xmlDirection, w xmlWedge, offset model.Beats) {
	num := w.Number
	if num == 0 {
		num = 1
	}

	switch w.Type {
	case "crescendo", "diminuendo":
		kind := model.SpannerCrescendo
		if w.Type == "diminuendo" {
			kind = model.SpannerDiminuendo
		}
		pd.openWedges[num] = &openWedge{
			kind:       kind,
			voice:      d.Voice,
			staff:      d.Staff,
			measureIdx: measureIdx,
			offset:     offset,
		}
	case "stop":
		open, ok := pd.openWedges[num]
		if !ok {
			return
		}
		delete(pd.openWedges, num)
		pd.closedWedges = append(pd.closedWedges, closedWedge{
			open:       open,
			stopIdx:    measureIdx,
			stopOffset: offset,
			number:     num,
		})
	}
}

func (pd *partDecoder) resolveWedge(open *openWedge, stopIdx int, stopOffset model.Beats, num int) {
	voiceID := open.voice
	if voiceID == "" {
		staff := open.staff
		if staff == 0 {
			staff = 1
		}
		if vs := pd.staffVoices[staff]; len(vs) > 0 {
			voiceID = vs[0]
		} else {
			voiceID = "1"
		}
	}

	var startNote, endNote *model.Note
	for idx := open.measureIdx; idx <= stopIdx && idx < len(pd.part.Measures); idx++ {
		v := pd.part.Measures[idx].VoiceByID(voiceID)
		if v == nil {
			continue
		}
		for _, n := range v.Notes {
			if n.Rest || n.Grace {
				continue
			}
			afterStart := idx > open.measureIdx || n.Offset.Cmp(open.offset) >= 0
			beforeStop := idx < stopIdx || n.Offset.Cmp(stopOffset) <= 0
			if afterStart && beforeStop {
				if startNote == nil {
					startNote = n
				}
				endNote = n
			}
		}
	}

	if startNote == nil || endNote == nil {
		return
	}
	pd.spanners = append(pd.spanners, &model.Spanner{
		Kind:   open.kind,
		Number: num,
		Notes:  []*model.Note{startNote, endNote},
	})
}

// finishMeasure fills the measure's nominal duration from the governing
// time signature, falling back to the furthest voice end.
func (pd *partDecoder) finishMeasure(measure *model.Measure) {
	if pd.time != nil {
		measure.Duration = pd.time.QuarterLength()
		return
	}
	var max model.Beats
	for _, v := range measure.Voices {
		for _, n := range v.Notes {
			if end := n.End(); max.Less(end) {
				max = end
			}
		}
	}
	measure.Duration = max
}
