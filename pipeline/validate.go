package pipeline

import (
	"fmt"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/errs"
	"github.com/jsphweid/satbsplit/identify"
	"github.com/jsphweid/satbsplit/model"
)

// Validate checks the sealed outputs against the structural invariants:
// one part per score, at most one voice per measure, every input note of a
// voice preserved byte-identically in that voice's output, no duplicate
// dynamics at a position, and no spanner referencing a missing note.
func Validate(input *model.Score, mapping *identify.Mapping, voices map[string]*model.Score) error {
	for _, name := range constants.VoiceNames {
		score := voices[name]

		if len(score.Parts) != 1 {
			return &errs.ProcessingError{
				Stage:  errs.StageValidate,
				Detail: fmt.Sprintf("%v output has %d parts, expected 1", name, len(score.Parts)),
			}
		}

		for _, measure := range score.Parts[0].Measures {
			if len(measure.Voices) > 1 {
				return &errs.ProcessingError{
					Stage: errs.StageValidate,
					Detail: fmt.Sprintf("%v output measure %d holds %d voices",
						name, measure.Number, len(measure.Voices)),
				}
			}
			if err := checkDuplicateDynamics(name, measure); err != nil {
				return err
			}
		}

		if err := checkNotesPreserved(input, mapping.ByName(name), name, score); err != nil {
			return err
		}
		if err := checkSpannerEndpoints(name, score); err != nil {
			return err
		}
	}
	return nil
}

func checkDuplicateDynamics(name string, measure *model.Measure) error {
	tol := model.B(constants.OffsetToleranceNum, constants.OffsetToleranceDen)
	for i, a := range measure.Dynamics {
		for _, b := range measure.Dynamics[i+1:] {
			if a.Offset.Within(b.Offset, tol) {
				return &errs.ProcessingError{
					Stage: errs.StageValidate,
					Detail: fmt.Sprintf("%v output measure %d has two dynamics at offset %v",
						name, measure.Number, a.Offset),
				}
			}
		}
	}
	return nil
}

// checkNotesPreserved verifies that every note of the voice's input stream
// appears in the output with the same measure, offset, duration and
// pitches.
func checkNotesPreserved(input *model.Score, loc identify.Location, name string, out *model.Score) error {
	if loc.PartIndex >= len(input.Parts) {
		return nil
	}
	for _, measure := range input.Parts[loc.PartIndex].Measures {
		voice := measure.VoiceByID(loc.VoiceID)
		if voice == nil {
			continue
		}
		outMeasure := out.MeasureByNumber(measure.Number)
		if outMeasure == nil {
			return &errs.ProcessingError{
				Stage:  errs.StageValidate,
				Detail: fmt.Sprintf("%v output lost measure %d", name, measure.Number),
			}
		}
		for _, n := range voice.Notes {
			if !measureHasNote(outMeasure, n) {
				return &errs.ProcessingError{
					Stage: errs.StageValidate,
					Detail: fmt.Sprintf("%v output measure %d lost note at offset %v",
						name, measure.Number, n.Offset),
				}
			}
		}
	}
	return nil
}

func measureHasNote(measure *model.Measure, want *model.Note) bool {
	for _, v := range measure.Voices {
		for _, n := range v.Notes {
			if n.Rest == want.Rest &&
				n.Offset.Cmp(want.Offset) == 0 &&
				n.Duration.Cmp(want.Duration) == 0 &&
				samePitches(n.Pitches, want.Pitches) {
				return true
			}
		}
	}
	return false
}

func samePitches(a, b []model.Pitch) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkSpannerEndpoints(name string, score *model.Score) error {
	alive := make(map[*model.Note]bool)
	for _, n := range score.AllNotes() {
		alive[n] = true
	}
	for _, sp := range score.Spanners {
		for _, n := range sp.Notes {
			if !alive[n] {
				return &errs.ProcessingError{
					Stage:  errs.StageValidate,
					Detail: fmt.Sprintf("%v output holds a %v spanner referencing a missing note", name, sp.Kind),
				}
			}
		}
	}
	return nil
}
