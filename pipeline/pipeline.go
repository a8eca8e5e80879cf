// Package pipeline wires the five stages together: identify voices,
// replicate the score, prune each copy to one voice, simplify to a single
// staff, and unify shared context across the four results. Control flow is
// strictly sequential; all state travels through arguments and results.
package pipeline

import (
	"fmt"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/identify"
	"github.com/jsphweid/satbsplit/model"
	"github.com/jsphweid/satbsplit/prune"
	"github.com/jsphweid/satbsplit/simplify"
	"github.com/jsphweid/satbsplit/unify"
)

type Options struct {
	ApplyDynamicsUnification bool
	ApplyLyricsUnification   bool
	ApplySpannerUnification  bool
	ApplyLayoutUnification   bool
	ValidateOutput           bool
}

func DefaultOptions() Options {
	return Options{
		ApplyDynamicsUnification: true,
		ApplyLyricsUnification:   true,
		ApplySpannerUnification:  true,
		ApplyLayoutUnification:   true,
		ValidateOutput:           true,
	}
}

type Stats struct {
	InputMeasures int
	NotesPerVoice map[string]int
}

type Result struct {
	Voices  map[string]*model.Score
	Mapping *identify.Mapping
	Stats   Stats
}

// Run executes the pipeline over an already-loaded score. baseName is the
// original input's base name (without extension); it seeds output titles
// when the score has no work title of its own.
func Run(input *model.Score, baseName string, opts Options) (*Result, error) {
	mapping, err := identify.Identify(input)
	if err != nil {
		return nil, err
	}

	voices := prune.Replicate(input)

	for _, name := range constants.VoiceNames {
		loc := mapping.ByName(name)
		if err := prune.KeepOnly(voices[name], name, loc); err != nil {
			return nil, err
		}
	}

	for _, name := range constants.VoiceNames {
		loc := mapping.ByName(name)
		if err := simplify.SingleStaff(voices[name], name, loc, baseName); err != nil {
			return nil, err
		}
	}

	err = unify.Apply(unify.Scores(voices), unify.Options{
		Dynamics: opts.ApplyDynamicsUnification,
		Lyrics:   opts.ApplyLyricsUnification,
		Spanners: opts.ApplySpannerUnification,
		Layout:   opts.ApplyLayoutUnification,
	})
	if err != nil {
		return nil, err
	}

	if opts.ValidateOutput {
		if err := Validate(input, mapping, voices); err != nil {
			return nil, err
		}
	}

	return &Result{
		Voices:  voices,
		Mapping: mapping,
		Stats:   gatherStats(input, voices),
	}, nil
}

func gatherStats(input *model.Score, voices map[string]*model.Score) Stats {
	stats := Stats{NotesPerVoice: make(map[string]int)}
	for _, part := range input.Parts {
		if n := len(part.Measures); n > stats.InputMeasures {
			stats.InputMeasures = n
		}
	}
	for _, name := range constants.VoiceNames {
		count := 0
		for _, n := range voices[name].AllNotes() {
			if !n.Rest {
				count++
			}
		}
		stats.NotesPerVoice[name] = count
	}
	return stats
}

// Summary renders the stats the way the CLI prints them.
func (s Stats) Summary() string {
	res := fmt.Sprintf("%d measures", s.InputMeasures)
	for _, name := range constants.VoiceNames {
		res += fmt.Sprintf(", %v: %d notes", name, s.NotesPerVoice[name])
	}
	return res
}
