// Package simplify collapses a pruned score down to a single staff with the
// clef and metadata conventional for the target voice.
package simplify

import (
	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/errs"
	"github.com/jsphweid/satbsplit/identify"
	"github.com/jsphweid/satbsplit/model"
)

// clefFor maps the labeled clef of a voice location to its MusicXML form.
// Tenor is written treble-8vb: an octave higher than it sounds.
func clefFor(name string) model.Clef {
	switch name {
	case constants.ClefTreble8vb:
		return model.Clef{Sign: "G", Line: 2, OctaveChange: -1, Staff: 1}
	case constants.ClefBass:
		return model.Clef{Sign: "F", Line: 4, Staff: 1}
	default:
		return model.Clef{Sign: "G", Line: 2, Staff: 1}
	}
}

// SingleStaff reduces the score to the one part holding the kept voice,
// assigns the voice's clef, renumbers the surviving voice to "1" and stamps
// part name and titles. baseName is the ORIGINAL input's base name, used
// when the score carries no work title; the temporary file produced by an
// .mscz conversion must never reach output metadata.
func SingleStaff(score *model.Score, voiceName string, loc identify.Location, baseName string) error {
	if loc.PartIndex >= len(score.Parts) {
		return &errs.ProcessingError{
			Stage:  errs.StageSimplify,
			Detail: "kept part index out of range",
		}
	}

	part := score.Parts[loc.PartIndex]
	score.Parts = []*model.Part{part}
	part.ID = "P1"
	part.Name = voiceName

	clef := clefFor(loc.Clef)
	seenAttr := false
	for _, measure := range part.Measures {
		// One staff from here on: collapse staff-scoped attributes and
		// give the surviving voice the conventional id "1".
		if measure.Attr != nil {
			measure.Attr.Staves = 0
			if len(measure.Attr.Clefs) > 0 || !seenAttr {
				measure.Attr.Clefs = []model.Clef{clef}
			}
			seenAttr = true
		}
		for _, v := range measure.Voices {
			v.ID = "1"
		}
	}
	if !seenAttr && len(part.Measures) > 0 {
		if part.Measures[0].Attr == nil {
			part.Measures[0].Attr = &model.Attributes{}
		}
		part.Measures[0].Attr.Clefs = []model.Clef{clef}
	}

	title := score.WorkTitle
	if title == "" {
		title = baseName
	}
	full := title + " (" + voiceName + ")"
	score.WorkTitle = full
	score.MovementTitle = full

	return nil
}
