package unify

import (
	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/model"
)

type lyricAssignment struct {
	target *model.Note
	lyrics []*model.Lyric
}

// unifyLyrics copies lyrics across voices by deterministic time-window
// matching. Exact-offset+exact-duration matching dropped lyrics whenever
// voices held different rhythmic values under the same word (a dotted half
// in Soprano over a half in Alto and a quarter in Tenor), so candidacy is
// defined by overlap instead: a target note qualifies when its offset lies
// in [source.offset, source.offset+source.duration).
//
// Only notes that carried lyrics before this pass act as sources, and a
// note receives at most one copy; existing lyrics are never overwritten.
func unifyLyrics(scores Scores) error {
	middles := make(map[string]map[*model.Note]bool, len(constants.VoiceNames))
	for _, name := range constants.VoiceNames {
		middles[name] = slurMiddles(scores[name])
	}

	assigned := make(map[*model.Note]bool)
	var assignments []lyricAssignment

	for _, sourceName := range constants.VoiceNames {
		source := scores[sourceName]
		for _, part := range source.Parts {
			for _, measure := range part.Measures {
				for _, voice := range measure.Voices {
					for _, note := range voice.Notes {
						if !note.HasLyrics() || note.Rest || note.Grace {
							continue
						}
						collectLyricTargets(scores, middles, assigned, &assignments, sourceName, measure.Number, note)
					}
				}
			}
		}
	}

	for _, a := range assignments {
		for _, l := range a.lyrics {
			cp := *l
			a.target.Lyrics = append(a.target.Lyrics, &cp)
		}
	}
	return nil
}

func collectLyricTargets(scores Scores, middles map[string]map[*model.Note]bool,
	assigned map[*model.Note]bool, assignments *[]lyricAssignment,
	sourceName string, measureNum int, source *model.Note) {

	for _, targetName := range constants.VoiceNames {
		if targetName == sourceName {
			continue
		}
		target := scores[targetName]

		var eligible []*model.Note
		for _, n := range notesInWindow(target, measureNum, source.Offset, source.End()) {
			if n.HasLyrics() || assigned[n] {
				continue
			}
			if middles[targetName][n] {
				// Mid-slur notes never take a syllable.
				continue
			}
			eligible = append(eligible, n)
		}

		best := selectCandidate(eligible)
		if best == nil {
			continue
		}
		assigned[best] = true
		*assignments = append(*assignments, lyricAssignment{target: best, lyrics: source.Lyrics})
	}
}
