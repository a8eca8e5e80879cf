package unify

import (
	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/model"
)

// timeRange is a span across the shared timeline, endpoints inclusive.
type timeRange struct {
	startMeasure int
	start        model.Beats
	endMeasure   int
	end          model.Beats
}

func rangeOf(sp *model.Spanner) timeRange {
	first, last := sp.First(), sp.Last()
	return timeRange{
		startMeasure: first.MeasureNum,
		start:        first.Offset,
		endMeasure:   last.MeasureNum,
		end:          last.Offset,
	}
}

// beforeOrAt reports whether position (m1, o1) <= (m2, o2).
func beforeOrAt(m1 int, o1 model.Beats, m2 int, o2 model.Beats) bool {
	if m1 != m2 {
		return m1 < m2
	}
	return o1.Cmp(o2) <= 0
}

func (r timeRange) overlaps(o timeRange) bool {
	return beforeOrAt(r.startMeasure, r.start, o.endMeasure, o.end) &&
		beforeOrAt(o.startMeasure, o.start, r.endMeasure, r.end)
}

// unifySpanners copies system-wide wedges and then repairs references.
//
// Per-voice spanners (slurs, ties, voice-attached wedges) stay where they
// are; there is no cross-voice copying of those. A crescendo or diminuendo
// present in Soprano is treated as system-wide: every other voice without a
// matching wedge of the same kind over an overlapping time range receives a
// copy. That covers both the Soprano-only case (copy to A, T, B) and the
// Soprano-and-Bass case (copy to A and T).
//
// The unifier never creates ties, and ties that survived voice removal are
// left untouched.
func unifySpanners(scores Scores) error {
	soprano := scores[constants.Soprano]

	// Snapshot the wedge inventory before copying so freshly inserted
	// copies do not influence later decisions.
	existing := make(map[string][]timeRange) // "voice/kind" -> ranges
	for _, name := range constants.VoiceNames {
		for _, sp := range scores[name].Spanners {
			if sp.IsWedge() && sp.First() != nil {
				key := name + "/" + sp.Kind
				existing[key] = append(existing[key], rangeOf(sp))
			}
		}
	}

	for _, sp := range soprano.Spanners {
		if !sp.IsWedge() || sp.First() == nil {
			continue
		}
		src := rangeOf(sp)
		for _, name := range constants.VoiceNames {
			if name == constants.Soprano {
				continue
			}
			if hasOverlap(existing[name+"/"+sp.Kind], src) {
				continue
			}
			copyWedge(scores[name], sp, src)
		}
	}

	for _, name := range constants.VoiceNames {
		repairSpanners(scores[name])
	}
	return nil
}

func hasOverlap(ranges []timeRange, src timeRange) bool {
	for _, r := range ranges {
		if r.overlaps(src) {
			return true
		}
	}
	return false
}

// copyWedge locates endpoint notes in the target voice by the time-window
// rule and inserts a copy of the wedge. When no endpoint can be located the
// wedge is skipped for that voice; skipping is not fatal.
func copyWedge(target *model.Score, sp *model.Spanner, src timeRange) {
	first, last := sp.First(), sp.Last()

	startNote := selectCandidate(notesInWindow(target, first.MeasureNum, first.Offset, first.End()))
	endNote := selectCandidate(notesInWindow(target, last.MeasureNum, last.Offset, last.End()))
	if startNote == nil || endNote == nil || startNote == endNote {
		return
	}
	if !beforeOrAt(startNote.MeasureNum, startNote.Offset, endNote.MeasureNum, endNote.Offset) {
		return
	}

	target.Spanners = append(target.Spanners, &model.Spanner{
		Kind:   sp.Kind,
		Number: sp.Number,
		Notes:  []*model.Note{startNote, endNote},
	})
}

// repairSpanners validates every spanner's endpoints against the notes that
// actually exist in the score and removes orphans.
func repairSpanners(score *model.Score) {
	alive := make(map[*model.Note]bool)
	for _, n := range score.AllNotes() {
		alive[n] = true
	}

	kept := score.Spanners[:0]
	for _, sp := range score.Spanners {
		ok := len(sp.Notes) > 0
		for _, n := range sp.Notes {
			if !alive[n] {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, sp)
		}
	}
	score.Spanners = kept
}
