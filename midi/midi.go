// Package midi renders the four split voices to a Standard MIDI File so a
// part can be auditioned without opening notation software.
package midi

import (
	"sort"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/model"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const ticksPerQuarter = 480

type noteEvent struct {
	tick  uint32
	off   bool
	key   uint8
	order int
}

// Render builds a multi-track SMF, one track per voice in SATB order.
func Render(voices map[string]*model.Score) *smf.SMF {
	var res smf.SMF
	res.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	bpm := firstTempo(voices)

	for i, name := range constants.VoiceNames {
		track := renderTrack(voices[name], name, uint8(i), i == 0, bpm)
		res.Tracks = append(res.Tracks, track)
	}
	return &res
}

func firstTempo(voices map[string]*model.Score) float64 {
	soprano := voices[constants.Soprano]
	if soprano != nil {
		for _, part := range soprano.Parts {
			for _, m := range part.Measures {
				for _, t := range m.Tempos {
					if t.PerMinute > 0 {
						return float64(t.PerMinute)
					}
				}
			}
		}
	}
	return 120
}

func renderTrack(score *model.Score, name string, channel uint8, withTempo bool, bpm float64) smf.Track {
	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(name))
	if withTempo {
		track.Add(0, smf.MetaTempo(bpm))
	}

	events := gatherEvents(score)

	// Note-offs sort ahead of note-ons at equal ticks so repeated pitches
	// retrigger instead of cancelling.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		if events[i].off != events[j].off {
			return events[i].off
		}
		return events[i].order < events[j].order
	})

	var lastTick uint32
	for _, evt := range events {
		delta := evt.tick - lastTick
		lastTick = evt.tick
		if evt.off {
			track.Add(delta, midi.NoteOff(channel, evt.key))
		} else {
			track.Add(delta, midi.NoteOn(channel, evt.key, 90))
		}
	}

	track.Close(0)
	return track
}

func gatherEvents(score *model.Score) []noteEvent {
	var events []noteEvent
	if score == nil {
		return events
	}

	order := 0
	for _, part := range score.Parts {
		base := model.Beats{}
		for _, measure := range part.Measures {
			for _, voice := range measure.Voices {
				for _, n := range voice.Notes {
					if n.Rest || n.Grace {
						continue
					}
					start := toTicks(base.Add(n.Offset))
					end := toTicks(base.Add(n.End()))
					for _, p := range n.Pitches {
						events = append(events,
							noteEvent{tick: start, key: p.Midi(), order: order},
							noteEvent{tick: end, off: true, key: p.Midi(), order: order})
						order++
					}
				}
			}
			base = base.Add(measure.Duration)
		}
	}
	return events
}

func toTicks(b model.Beats) uint32 {
	return uint32(b.Float64() * ticksPerQuarter)
}
