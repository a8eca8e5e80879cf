package unify

import (
	"testing"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/model"
	"github.com/stretchr/testify/assert"
)

func layoutScores() Scores {
	mk := func(step string, oct int) *model.Score {
		return derived(
			measure(11, note(11, model.B(0, 1), model.Whole(4), step, oct)),
			measure(12, note(12, model.B(0, 1), model.Whole(4), step, oct)),
		)
	}
	return fourScores(mk("G", 4), mk("E", 4), mk("C", 4), mk("C", 3))
}

func TestSystemBreakPropagates(t *testing.T) {
	assert := assert.New(t)

	scores := layoutScores()
	scores[constants.Soprano].MeasureByNumber(12).Layout = &model.LayoutMark{NewSystem: true}

	if err := unifyLayout(scores); err != nil {
		t.Fatalf("unifyLayout failed: %v", err)
	}

	for _, name := range constants.VoiceNames {
		layout := scores[name].MeasureByNumber(12).Layout
		if assert.NotNil(layout, name) {
			assert.True(layout.NewSystem, name)
			assert.False(layout.NewPage, name)
		}
		assert.Nil(scores[name].MeasureByNumber(11).Layout, name)
	}
}

func TestTempoPropagatesWithDuplicateSuppression(t *testing.T) {
	assert := assert.New(t)

	scores := layoutScores()
	sop := scores[constants.Soprano].MeasureByNumber(11)
	sop.Tempos = append(sop.Tempos, &model.Tempo{BeatUnit: "quarter", PerMinute: 72})

	// Alto already carries the same mark; it must not get a second copy.
	alto := scores[constants.Alto].MeasureByNumber(11)
	alto.Tempos = append(alto.Tempos, &model.Tempo{BeatUnit: "quarter", PerMinute: 72})

	if err := unifyLayout(scores); err != nil {
		t.Fatalf("unifyLayout failed: %v", err)
	}

	for _, name := range constants.VoiceNames {
		tempos := scores[name].MeasureByNumber(11).Tempos
		if assert.Len(tempos, 1, name) {
			assert.Equal(72, tempos[0].PerMinute, name)
		}
	}
}

func TestRehearsalMarkPropagates(t *testing.T) {
	assert := assert.New(t)

	scores := layoutScores()
	bass := scores[constants.Bass].MeasureByNumber(12)
	bass.Rehearsals = append(bass.Rehearsals, &model.RehearsalMark{Text: "B"})

	if err := unifyLayout(scores); err != nil {
		t.Fatalf("unifyLayout failed: %v", err)
	}

	for _, name := range constants.VoiceNames {
		marks := scores[name].MeasureByNumber(12).Rehearsals
		if assert.Len(marks, 1, name) {
			assert.Equal("B", marks[0].Text, name)
		}
	}
}

func TestDistinctTemposBothPropagate(t *testing.T) {
	assert := assert.New(t)

	scores := layoutScores()
	sop := scores[constants.Soprano].MeasureByNumber(11)
	sop.Tempos = append(sop.Tempos, &model.Tempo{Text: "Andante"})
	ten := scores[constants.Tenor].MeasureByNumber(11)
	ten.Tempos = append(ten.Tempos, &model.Tempo{Offset: model.Whole(2), BeatUnit: "quarter", PerMinute: 60})

	if err := unifyLayout(scores); err != nil {
		t.Fatalf("unifyLayout failed: %v", err)
	}

	for _, name := range constants.VoiceNames {
		assert.Len(scores[name].MeasureByNumber(11).Tempos, 2, name)
	}
}
