package unify

import (
	"sort"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/model"
)

// dynPos is a (measure, offset) slot in the shared timeline.
type dynPos struct {
	measure int
	offset  offKey
}

type dynInsertion struct {
	voice   string
	measure int
	offset  model.Beats
	value   string
}

// unifyDynamics applies the dynamics rules:
//
//	R1: a mark at the same (measure, offset) in two or more voices is
//	    copied to the voices that lack it.
//	R2: a mark in Soprano alone, with no other voice marked at that
//	    position, is copied to Alto, Tenor and Bass.
//	R4: voices carrying different marks at the same position keep them;
//	    nothing is overridden.
//
// All decisions are made against the pre-unification state; insertions are
// applied afterwards so scan order cannot influence the outcome.
func unifyDynamics(scores Scores) error {
	// occupancy: which voices carry which values at each position.
	values := make(map[dynPos]map[string][]string) // pos -> voice -> values
	offsets := make(map[dynPos]model.Beats)

	for _, name := range constants.VoiceNames {
		score := scores[name]
		for _, part := range score.Parts {
			for _, measure := range part.Measures {
				for _, d := range measure.Dynamics {
					pos := dynPos{measure.Number, keyOf(d.Offset)}
					if values[pos] == nil {
						values[pos] = make(map[string][]string)
					}
					values[pos][name] = append(values[pos][name], d.Value)
					offsets[pos] = d.Offset
				}
			}
		}
	}

	positions := make([]dynPos, 0, len(values))
	for pos := range values {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].measure != positions[j].measure {
			return positions[i].measure < positions[j].measure
		}
		a, b := positions[i].offset, positions[j].offset
		return a.num*b.den < b.num*a.den
	})

	var insertions []dynInsertion
	for _, pos := range positions {
		byVoice := values[pos]

		// R1: same value in two or more voices.
		counts := make(map[string]int)
		for _, name := range constants.VoiceNames {
			for _, v := range byVoice[name] {
				counts[v]++
			}
		}
		applied := false
		for _, value := range sortedKeys(counts) {
			if counts[value] < 2 {
				continue
			}
			applied = true
			for _, name := range constants.VoiceNames {
				if len(byVoice[name]) == 0 {
					insertions = append(insertions, dynInsertion{
						voice: name, measure: pos.measure, offset: offsets[pos], value: value,
					})
				}
			}
		}
		if applied {
			continue
		}

		// R2: Soprano alone at this position.
		if len(byVoice[constants.Soprano]) == 1 && soloAt(byVoice) {
			value := byVoice[constants.Soprano][0]
			for _, name := range constants.VoiceNames {
				if name == constants.Soprano {
					continue
				}
				insertions = append(insertions, dynInsertion{
					voice: name, measure: pos.measure, offset: offsets[pos], value: value,
				})
			}
		}
		// R4: differing marks stay as they are.
	}

	for _, ins := range insertions {
		applyDynamic(scores[ins.voice], ins)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// soloAt reports whether Soprano is the only voice marked at the position.
func soloAt(byVoice map[string][]string) bool {
	for _, name := range constants.VoiceNames {
		if name == constants.Soprano {
			continue
		}
		if len(byVoice[name]) > 0 {
			return false
		}
	}
	return true
}

func applyDynamic(score *model.Score, ins dynInsertion) {
	measure := score.MeasureByNumber(ins.measure)
	if measure == nil {
		return
	}
	// Duplicate suppression: never a second dynamic at the same position.
	for _, d := range measure.Dynamics {
		if d.Offset.Within(ins.offset, tolerance()) {
			return
		}
	}
	measure.Dynamics = append(measure.Dynamics, &model.Dynamic{
		Value:     ins.value,
		Offset:    ins.offset,
		Placement: placementFor(ins.voice),
	})
}

// Upper voices read dynamics above the staff, lower voices below.
func placementFor(voice string) string {
	if voice == constants.Soprano || voice == constants.Alto {
		return "above"
	}
	return "below"
}
