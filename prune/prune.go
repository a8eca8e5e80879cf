// Package prune implements the copy-and-remove half of the split: replicate
// the input score four times, then strip each copy down to a single voice.
// Preservation is the default; removal is the exception. Anything the
// remover does not explicitly touch survives the deep copy untouched.
package prune

import (
	"fmt"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/errs"
	"github.com/jsphweid/satbsplit/identify"
	"github.com/jsphweid/satbsplit/model"
)

// Replicate produces four independent deep copies of the input score, keyed
// by voice name. Mutating one copy never affects another or the original.
func Replicate(score *model.Score) map[string]*model.Score {
	res := make(map[string]*model.Score, len(constants.VoiceNames))
	for _, name := range constants.VoiceNames {
		res[name] = score.Clone()
	}
	return res
}

// KeepOnly mutates the score so that every measure of every part retains at
// most the target voice. Measure-level elements (dynamics, tempo marks,
// rehearsal marks, layout marks, attributes) are preserved in place. A
// measure left without timed content gets a full-measure rest at offset 0.
//
// Spanners whose endpoint notes were removed are swept out immediately; a
// later repair pass in the unifier re-checks after spanner copying.
func KeepOnly(score *model.Score, voiceName string, loc identify.Location) error {
	if loc.PartIndex >= len(score.Parts) {
		return &errs.VoiceRemovalError{
			Voice:  voiceName,
			Detail: fmt.Sprintf("part index %d out of range (%d parts)", loc.PartIndex, len(score.Parts)),
		}
	}

	for partIdx, part := range score.Parts {
		for _, measure := range part.Measures {
			if err := pruneMeasure(measure, voiceName, partIdx == loc.PartIndex, loc.VoiceID); err != nil {
				return err
			}
		}
	}

	sweepDanglingSpanners(score)
	return nil
}

func pruneMeasure(measure *model.Measure, voiceName string, isKeepPart bool, keepID string) error {
	if len(measure.Voices) == 0 {
		return nil
	}

	if !isKeepPart {
		// The voice id may recur in other parts; part index disambiguates.
		// Everything here goes.
		measure.Voices = nil
		fillIfEmpty(measure)
		return nil
	}

	target := measure.VoiceByID(keepID)
	if target == nil {
		return &errs.VoiceRemovalError{
			Voice:   voiceName,
			Measure: measure.Number,
			Detail:  fmt.Sprintf("keep-voice %q not found among %d voices", keepID, len(measure.Voices)),
		}
	}

	// Keep the surviving voice container rather than flattening, so the
	// one-voice-per-measure invariant holds structurally.
	measure.Voices = []*model.Voice{target}
	fillIfEmpty(measure)
	return nil
}

// fillIfEmpty inserts a full-measure rest when the measure has no timed
// content left, preserving measure timing for the part.
func fillIfEmpty(measure *model.Measure) {
	for _, v := range measure.Voices {
		if len(v.Notes) > 0 {
			return
		}
	}
	dur := measure.Duration
	if dur.IsZero() {
		dur = model.Whole(4)
	}
	rest := &model.Note{
		Offset:     model.B(0, 1),
		Duration:   dur,
		Rest:       true,
		MeasureNum: measure.Number,
	}
	if len(measure.Voices) == 0 {
		measure.Voices = []*model.Voice{{ID: "1"}}
	}
	measure.Voices[0].Notes = append(measure.Voices[0].Notes, rest)
}

// sweepDanglingSpanners drops every spanner with an endpoint that no longer
// exists in the score. Broken spanners are discarded, never repaired from
// partial references.
func sweepDanglingSpanners(score *model.Score) {
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
