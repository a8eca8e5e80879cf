// Package unify redistributes shared musical context across the four
// derived scores. After voice removal each score carries only the marks
// that happened to ride on its own voice; engravers of closed scores put
// system-wide markings on one voice (typically Soprano), so the four parts
// must be reconciled to look like freestanding, correctly-marked scores.
//
// The unifier only ever adds: dynamics at a measure offset, lyrics on an
// existing note, spanner copies whose endpoints are existing notes, layout
// marks at measure boundaries, and tempo and rehearsal marks at the measure
// offsets they carry. It never moves or resizes a preexisting element.
package unify

import (
	"sort"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/model"
)

// Scores holds the four derived scores keyed by voice name. Iteration
// always walks constants.VoiceNames, never the map.
type Scores map[string]*model.Score

// Options enables individual sub-policies.
type Options struct {
	Dynamics bool
	Lyrics   bool
	Spanners bool
	Layout   bool
}

// Apply runs the sub-policies in their required order: dynamics, lyrics,
// spanners, layout/tempo. Later policies read the state left by earlier
// ones.
func Apply(scores Scores, opts Options) error {
	if opts.Dynamics {
		if err := unifyDynamics(scores); err != nil {
			return err
		}
	}
	if opts.Lyrics {
		if err := unifyLyrics(scores); err != nil {
			return err
		}
	}
	if opts.Spanners {
		if err := unifySpanners(scores); err != nil {
			return err
		}
	}
	if opts.Layout {
		if err := unifyLayout(scores); err != nil {
			return err
		}
	}
	return nil
}

func tolerance() model.Beats {
	return model.B(constants.OffsetToleranceNum, constants.OffsetToleranceDen)
}

// offKey is an exact map key for a rational offset.
type offKey struct {
	num, den int64
}

func keyOf(b model.Beats) offKey {
	r := model.B(b.Num, maxInt64(b.Den, 1))
	return offKey{r.Num, r.Den}
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// candidate search: notes of the target score's sole voice in the given
// measure whose offsets lie in [start, end). Grace notes and rests are
// never candidates.
func notesInWindow(score *model.Score, measureNum int, start, end model.Beats) []*model.Note {
	measure := score.MeasureByNumber(measureNum)
	if measure == nil {
		return nil
	}
	voice := measure.SoleVoice()
	if voice == nil {
		return nil
	}
	var res []*model.Note
	for _, n := range voice.Notes {
		if n.Rest || n.Grace {
			continue
		}
		if n.Offset.Cmp(start) >= 0 && n.Offset.Cmp(end) < 0 {
			res = append(res, n)
		}
	}
	return res
}

// selectCandidate applies the total order of §4.5.2: longest duration
// first, then earliest offset, then order of appearance. The input slice
// is in appearance order, so a stable sort provides the final tiebreak.
func selectCandidate(candidates []*model.Note) *model.Note {
	if len(candidates) == 0 {
		return nil
	}
	sorted := append([]*model.Note(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].Duration.Cmp(sorted[j].Duration); c != 0 {
			return c > 0
		}
		return sorted[i].Offset.Cmp(sorted[j].Offset) < 0
	})
	return sorted[0]
}

// slurMiddles returns the notes that sit strictly inside a slur: neither
// its first nor its last note. Such notes never receive copied lyrics.
func slurMiddles(score *model.Score) map[*model.Note]bool {
	res := make(map[*model.Note]bool)
	for _, sp := range score.Spanners {
		if sp.Kind != model.SpannerSlur || len(sp.Notes) < 3 {
			continue
		}
		for _, n := range sp.Notes[1 : len(sp.Notes)-1] {
			res[n] = true
		}
	}
	return res
}

// maxMeasure returns the highest measure number across the four scores.
func maxMeasure(scores Scores) int {
	max := 0
	for _, name := range constants.VoiceNames {
		if s := scores[name]; s != nil {
			if n := s.MaxMeasureNumber(); n > max {
				max = n
			}
		}
	}
	return max
}
