package model

// Clone returns a deep copy of the score. Nothing is shared with the
// original: notes, voices, measures and spanners are all fresh objects, and
// spanner note references are re-pointed at the copied notes so identity
// semantics survive the copy.
func (s *Score) Clone() *Score {
	res := &Score{
		WorkTitle:     s.WorkTitle,
		MovementTitle: s.MovementTitle,
		Composer:      s.Composer,
		Lyricist:      s.Lyricist,
	}

	noteMap := make(map[*Note]*Note)

	for _, part := range s.Parts {
		res.Parts = append(res.Parts, clonePart(part, noteMap))
	}

	for _, sp := range s.Spanners {
		cp := &Spanner{Kind: sp.Kind, Number: sp.Number}
		for _, n := range sp.Notes {
			if mapped, ok := noteMap[n]; ok {
				cp.Notes = append(cp.Notes, mapped)
			} else {
				// Endpoint outside the part tree; keep the stale
				// reference so the repair sweep can discard it.
				cp.Notes = append(cp.Notes, n)
			}
		}
		res.Spanners = append(res.Spanners, cp)
	}

	return res
}

func clonePart(p *Part, noteMap map[*Note]*Note) *Part {
	res := &Part{ID: p.ID, Name: p.Name}
	for _, m := range p.Measures {
		res.Measures = append(res.Measures, cloneMeasure(m, noteMap))
	}
	return res
}

func cloneMeasure(m *Measure, noteMap map[*Note]*Note) *Measure {
	res := &Measure{Number: m.Number, Duration: m.Duration}

	if m.Attr != nil {
		attr := *m.Attr
		if m.Attr.Time != nil {
			t := *m.Attr.Time
			attr.Time = &t
		}
		if m.Attr.Key != nil {
			k := *m.Attr.Key
			attr.Key = &k
		}
		attr.Clefs = append([]Clef(nil), m.Attr.Clefs...)
		res.Attr = &attr
	}

	for _, v := range m.Voices {
		res.Voices = append(res.Voices, cloneVoice(v, noteMap))
	}
	for _, d := range m.Dynamics {
		cp := *d
		res.Dynamics = append(res.Dynamics, &cp)
	}
	for _, t := range m.Tempos {
		cp := *t
		res.Tempos = append(res.Tempos, &cp)
	}
	for _, r := range m.Rehearsals {
		cp := *r
		res.Rehearsals = append(res.Rehearsals, &cp)
	}
	if m.Layout != nil {
		cp := *m.Layout
		res.Layout = &cp
	}

	return res
}

func cloneVoice(v *Voice, noteMap map[*Note]*Note) *Voice {
	res := &Voice{ID: v.ID}
	for _, n := range v.Notes {
		res.Notes = append(res.Notes, cloneNote(n, noteMap))
	}
	return res
}

func cloneNote(n *Note, noteMap map[*Note]*Note) *Note {
	cp := &Note{
		Offset:     n.Offset,
		Duration:   n.Duration,
		Rest:       n.Rest,
		Grace:      n.Grace,
		Tie:        n.Tie,
		Type:       n.Type,
		Dots:       n.Dots,
		MeasureNum: n.MeasureNum,
	}
	cp.Pitches = append([]Pitch(nil), n.Pitches...)
	for _, l := range n.Lyrics {
		lc := *l
		cp.Lyrics = append(cp.Lyrics, &lc)
	}
	noteMap[n] = cp
	return cp
}
