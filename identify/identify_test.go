package identify

import (
	"testing"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/errs"
	"github.com/jsphweid/satbsplit/model"
	"github.com/stretchr/testify/assert"
)

func measureWithVoices(num int, ids ...string) *model.Measure {
	m := &model.Measure{Number: num, Duration: model.Whole(4)}
	for _, id := range ids {
		note := &model.Note{Duration: model.Whole(1), Pitches: []model.Pitch{{Step: "C", Octave: 4}}, MeasureNum: num}
		m.Voices = append(m.Voices, &model.Voice{ID: id, Notes: []*model.Note{note}})
	}
	return m
}

func closedScore() *model.Score {
	return &model.Score{
		Parts: []*model.Part{
			{ID: "P1", Measures: []*model.Measure{
				measureWithVoices(1, "1", "2"),
				measureWithVoices(2, "1", "2"),
			}},
			{ID: "P2", Measures: []*model.Measure{
				measureWithVoices(1, "5", "6"),
				measureWithVoices(2, "5", "6"),
			}},
		},
	}
}

func TestIdentifyCanonical(t *testing.T) {
	assert := assert.New(t)

	mapping, err := Identify(closedScore())
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}

	assert.Equal(Location{PartIndex: 0, VoiceID: "1", Clef: constants.ClefTreble}, mapping.Soprano)
	assert.Equal(Location{PartIndex: 0, VoiceID: "2", Clef: constants.ClefTreble}, mapping.Alto)
	assert.Equal(Location{PartIndex: 1, VoiceID: "5", Clef: constants.ClefTreble8vb}, mapping.Tenor)
	assert.Equal(Location{PartIndex: 1, VoiceID: "6", Clef: constants.ClefBass}, mapping.Bass)
}

func TestIdentifyByName(t *testing.T) {
	assert := assert.New(t)
	mapping, _ := Identify(closedScore())
	assert.Equal("5", mapping.ByName(constants.Tenor).VoiceID)
}

func TestIdentifyWrongPartCount(t *testing.T) {
	score := closedScore()
	score.Parts = score.Parts[:1]

	_, err := Identify(score)
	if err == nil {
		t.Fatal("expected VoiceDetectionError")
	}
	_, ok := err.(*errs.VoiceDetectionError)
	assert.True(t, ok, "expected *errs.VoiceDetectionError, got %T", err)
}

func TestIdentifyMissingVoice(t *testing.T) {
	assert := assert.New(t)

	score := closedScore()
	// Drop voice 6 from measure 2 of the second part.
	m := score.Parts[1].Measures[1]
	m.Voices = m.Voices[:1]

	_, err := Identify(score)
	if assert.Error(err) {
		assert.Contains(err.Error(), "measure 2")
	}
}

func TestIdentifySkipsEmptyMeasures(t *testing.T) {
	score := closedScore()
	// A measure with no voices at all does not trip the check.
	score.Parts[0].Measures = append(score.Parts[0].Measures, &model.Measure{Number: 3})

	if _, err := Identify(score); err != nil {
		t.Fatalf("Identify failed on voiceless measure: %v", err)
	}
}
