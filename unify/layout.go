package unify

import (
	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/model"
)

// unifyLayout copies system breaks, page breaks, tempo/metronome marks and
// rehearsal marks to every derived score. These marks have no note
// endpoints, so copying is a measure-indexed insertion with duplicate
// suppression.
func unifyLayout(scores Scores) error {
	last := maxMeasure(scores)
	for num := 1; num <= last; num++ {
		unifyLayoutMarks(scores, num)
		unifyTempos(scores, num)
		unifyRehearsals(scores, num)
	}
	return nil
}

func unifyLayoutMarks(scores Scores, num int) {
	merged := model.LayoutMark{}
	found := false
	for _, name := range constants.VoiceNames {
		m := scores[name].MeasureByNumber(num)
		if m == nil || m.Layout == nil {
			continue
		}
		found = true
		merged.NewSystem = merged.NewSystem || m.Layout.NewSystem
		merged.NewPage = merged.NewPage || m.Layout.NewPage
	}
	if !found {
		return
	}
	for _, name := range constants.VoiceNames {
		m := scores[name].MeasureByNumber(num)
		if m == nil {
			continue
		}
		if m.Layout == nil {
			cp := merged
			m.Layout = &cp
		} else {
			m.Layout.NewSystem = m.Layout.NewSystem || merged.NewSystem
			m.Layout.NewPage = m.Layout.NewPage || merged.NewPage
		}
	}
}

func unifyTempos(scores Scores, num int) {
	// Collect the union in voice order; the first occurrence of a mark
	// fixes the copy that the other voices receive.
	var union []*model.Tempo
	for _, name := range constants.VoiceNames {
		m := scores[name].MeasureByNumber(num)
		if m == nil {
			continue
		}
		for _, t := range m.Tempos {
			if !containsTempo(union, t) {
				union = append(union, t)
			}
		}
	}
	for _, t := range union {
		for _, name := range constants.VoiceNames {
			m := scores[name].MeasureByNumber(num)
			if m == nil || containsTempo(m.Tempos, t) {
				continue
			}
			cp := *t
			m.Tempos = append(m.Tempos, &cp)
		}
	}
}

func containsTempo(list []*model.Tempo, t *model.Tempo) bool {
	for _, x := range list {
		if x.Offset.Within(t.Offset, tolerance()) &&
			x.Text == t.Text && x.BeatUnit == t.BeatUnit && x.PerMinute == t.PerMinute {
			return true
		}
	}
	return false
}

func unifyRehearsals(scores Scores, num int) {
	var union []*model.RehearsalMark
	for _, name := range constants.VoiceNames {
		m := scores[name].MeasureByNumber(num)
		if m == nil {
			continue
		}
		for _, r := range m.Rehearsals {
			if !containsRehearsal(union, r) {
				union = append(union, r)
			}
		}
	}
	for _, r := range union {
		for _, name := range constants.VoiceNames {
			m := scores[name].MeasureByNumber(num)
			if m == nil || containsRehearsal(m.Rehearsals, r) {
				continue
			}
			cp := *r
			m.Rehearsals = append(m.Rehearsals, &cp)
		}
	}
}

func containsRehearsal(list []*model.RehearsalMark, r *model.RehearsalMark) bool {
	for _, x := range list {
		if x.Offset.Within(r.Offset, tolerance()) && x.Text == r.Text {
			return true
		}
	}
	return false
}
