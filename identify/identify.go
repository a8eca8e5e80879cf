// Package identify locates the four SATB voices inside a closed-score
// input. The mapping is canonical and strict: no heuristic fallback, no
// confidence scores. Empirical fallbacks silently masked upstream bugs in
// earlier iterations of this tool, so a nonconforming input is fatal.
package identify

import (
	"fmt"
	"strings"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/errs"
	"github.com/jsphweid/satbsplit/model"
)

// Location identifies one SATB voice within the input score.
type Location struct {
	PartIndex int
	VoiceID   string
	Clef      string
}

// Mapping holds the four voice locations.
type Mapping struct {
	Soprano Location
	Alto    Location
	Tenor   Location
	Bass    Location
}

// ByName returns the location for a voice name (Soprano, Alto, Tenor, Bass).
func (m *Mapping) ByName(name string) Location {
	switch name {
	case constants.Soprano:
		return m.Soprano
	case constants.Alto:
		return m.Alto
	case constants.Tenor:
		return m.Tenor
	case constants.Bass:
		return m.Bass
	}
	panic("unknown voice name: " + name)
}

// canonical closed-score layout: S and A on the first staff as voices 1/2,
// T and B on the second staff as voices 5/6 (the MuseScore exporter's ids).
var canonical = map[string]Location{
	constants.Soprano: {PartIndex: 0, VoiceID: constants.SopranoVoiceID, Clef: constants.ClefTreble},
	constants.Alto:    {PartIndex: 0, VoiceID: constants.AltoVoiceID, Clef: constants.ClefTreble},
	constants.Tenor:   {PartIndex: 1, VoiceID: constants.TenorVoiceID, Clef: constants.ClefTreble8vb},
	constants.Bass:    {PartIndex: 1, VoiceID: constants.BassVoiceID, Clef: constants.ClefBass},
}

// Identify verifies the score against the canonical closed-score shape and
// returns the voice mapping.
func Identify(score *model.Score) (*Mapping, error) {
	if len(score.Parts) != 2 {
		return nil, &errs.VoiceDetectionError{
			Expected: "2 parts (closed-score SATB)",
			Actual:   fmt.Sprintf("%d parts", len(score.Parts)),
		}
	}

	required := [][]string{
		{constants.SopranoVoiceID, constants.AltoVoiceID},
		{constants.TenorVoiceID, constants.BassVoiceID},
	}

	for partIdx, wantIDs := range required {
		part := score.Parts[partIdx]
		for _, measure := range part.Measures {
			if len(measure.Voices) == 0 {
				continue
			}
			for _, id := range wantIDs {
				if measure.VoiceByID(id) == nil {
					return nil, &errs.VoiceDetectionError{
						Expected: fmt.Sprintf("voices %v in part %d", strings.Join(wantIDs, ","), partIdx),
						Actual: fmt.Sprintf("measure %d of part %d has voices %v",
							measure.Number, partIdx, voiceIDs(measure)),
					}
				}
			}
		}
	}

	m := &Mapping{
		Soprano: canonical[constants.Soprano],
		Alto:    canonical[constants.Alto],
		Tenor:   canonical[constants.Tenor],
		Bass:    canonical[constants.Bass],
	}
	return m, nil
}

func voiceIDs(m *model.Measure) []string {
	var ids []string
	for _, v := range m.Voices {
		ids = append(ids, v.ID)
	}
	return ids
}
