package musicxml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jsphweid/satbsplit/model"
	"github.com/stretchr/testify/assert"
)

// closedScoreXML is a two-measure closed score: S+A on part P1 as voices
// 1/2, T+B on part P2 as voices 5/6, with a dynamic, a lyric, a slur, a
// crescendo, a cross-barline tie and a system break.
const closedScoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <work><work-title>Abendlied</work-title></work>
  <identification><creator type="composer">J. Rheinberger</creator></identification>
  <part-list>
    <score-part id="P1"><part-name>Soprano Alto</part-name></score-part>
    <score-part id="P2"><part-name>Tenor Bass</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>2</divisions>
        <key><fifths>0</fifths></key>
        <time><beats>4</beats><beat-type>4</beat-type></time>
        <clef><sign>G</sign><line>2</line></clef>
      </attributes>
      <direction placement="below">
        <direction-type><dynamics><f/></dynamics></direction-type>
        <staff>1</staff>
      </direction>
      <direction>
        <direction-type><wedge type="crescendo" number="1"/></direction-type>
      </direction>
      <note>
        <pitch><step>G</step><octave>4</octave></pitch>
        <duration>4</duration><voice>1</voice><type>half</type>
        <lyric number="1"><syllabic>single</syllabic><text>Sun</text></lyric>
      </note>
      <note>
        <pitch><step>A</step><octave>4</octave></pitch>
        <duration>4</duration><voice>1</voice><type>half</type>
      </note>
      <backup><duration>8</duration></backup>
      <note>
        <pitch><step>C</step><octave>4</octave></pitch>
        <duration>4</duration><voice>2</voice><type>half</type>
      </note>
      <note>
        <pitch><step>E</step><octave>4</octave></pitch>
        <duration>4</duration><voice>2</voice><type>half</type>
      </note>
    </measure>
    <measure number="2">
      <print new-system="yes"/>
      <note>
        <pitch><step>C</step><octave>5</octave></pitch>
        <duration>4</duration><voice>1</voice><type>half</type>
      </note>
      <direction>
        <direction-type><wedge type="stop" number="1"/></direction-type>
      </direction>
      <note>
        <pitch><step>D</step><octave>5</octave></pitch>
        <duration>4</duration><voice>1</voice><type>half</type>
      </note>
      <backup><duration>8</duration></backup>
      <note>
        <pitch><step>C</step><octave>4</octave></pitch>
        <duration>8</duration><voice>2</voice><type>whole</type>
      </note>
    </measure>
  </part>
  <part id="P2">
    <measure number="1">
      <attributes>
        <divisions>2</divisions>
        <time><beats>4</beats><beat-type>4</beat-type></time>
        <clef><sign>F</sign><line>4</line></clef>
      </attributes>
      <note>
        <pitch><step>D</step><octave>4</octave></pitch>
        <duration>2</duration><voice>5</voice><type>quarter</type>
        <notations><slur type="start" number="1"/></notations>
      </note>
      <note>
        <pitch><step>E</step><octave>4</octave></pitch>
        <duration>2</duration><voice>5</voice><type>quarter</type>
      </note>
      <note>
        <pitch><step>F</step><octave>4</octave></pitch>
        <duration>2</duration><voice>5</voice><type>quarter</type>
        <notations><slur type="stop" number="1"/></notations>
      </note>
      <note>
        <rest/>
        <duration>2</duration><voice>5</voice><type>quarter</type>
      </note>
      <backup><duration>8</duration></backup>
      <note>
        <pitch><step>C</step><octave>3</octave></pitch>
        <duration>4</duration><voice>6</voice><type>half</type>
      </note>
      <note>
        <pitch><step>C</step><octave>3</octave></pitch>
        <duration>4</duration><voice>6</voice><type>half</type>
        <tie type="start"/>
        <notations><tied type="start"/></notations>
      </note>
    </measure>
    <measure number="2">
      <note>
        <rest measure="yes"/>
        <duration>8</duration><voice>5</voice>
      </note>
      <backup><duration>8</duration></backup>
      <note>
        <pitch><step>C</step><octave>3</octave></pitch>
        <duration>8</duration><voice>6</voice><type>whole</type>
        <tie type="stop"/>
        <notations><tied type="stop"/></notations>
      </note>
    </measure>
  </part>
</score-partwise>
`

func decodeFixture(t *testing.T) *model.Score {
	score, err := Decode(strings.NewReader(closedScoreXML))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return score
}

func TestDecodeHeader(t *testing.T) {
	assert := assert.New(t)
	score := decodeFixture(t)

	assert.Equal("Abendlied", score.WorkTitle)
	assert.Equal("J. Rheinberger", score.Composer)
	assert.Len(score.Parts, 2)
	assert.Equal("Soprano Alto", score.Parts[0].Name)
}

func TestDecodeVoicesAndOffsets(t *testing.T) {
	assert := assert.New(t)
	score := decodeFixture(t)

	m1 := score.Parts[0].Measures[0]
	assert.Equal(1, m1.Number)
	assert.Len(m1.Voices, 2)

	v1 := m1.VoiceByID("1")
	if assert.NotNil(v1) {
		assert.Len(v1.Notes, 2)
		assert.Equal(model.B(0, 1), v1.Notes[0].Offset)
		assert.Equal(model.Whole(2), v1.Notes[0].Duration)
		assert.Equal(model.Whole(2), v1.Notes[1].Offset)
	}

	v2 := m1.VoiceByID("2")
	if assert.NotNil(v2) {
		assert.Equal(model.B(0, 1), v2.Notes[0].Offset)
	}

	assert.Equal(model.Whole(4), m1.Duration)
}

func TestDecodeLyric(t *testing.T) {
	assert := assert.New(t)
	score := decodeFixture(t)

	note := score.Parts[0].Measures[0].VoiceByID("1").Notes[0]
	if assert.Len(note.Lyrics, 1) {
		assert.Equal("Sun", note.Lyrics[0].Text)
		assert.Equal(model.SyllabicSingle, note.Lyrics[0].Syllabic)
		assert.Equal(1, note.Lyrics[0].Number)
	}
}

func TestDecodeDynamics(t *testing.T) {
	assert := assert.New(t)
	score := decodeFixture(t)

	dyn := score.Parts[0].Measures[0].Dynamics
	if assert.Len(dyn, 1) {
		assert.Equal("f", dyn[0].Value)
		assert.Equal(model.B(0, 1), dyn[0].Offset)
		assert.Equal("below", dyn[0].Placement)
	}
}

func TestDecodeSlurCarriesMiddleNotes(t *testing.T) {
	assert := assert.New(t)
	score := decodeFixture(t)

	var slur *model.Spanner
	for _, sp := range score.Spanners {
		if sp.Kind == model.SpannerSlur {
			slur = sp
		}
	}
	if assert.NotNil(slur) {
		assert.Len(slur.Notes, 3)
		assert.Equal("D", slur.First().Pitches[0].Step)
		assert.Equal("F", slur.Last().Pitches[0].Step)
	}
}

func TestDecodeTieAcrossBarline(t *testing.T) {
	assert := assert.New(t)
	score := decodeFixture(t)

	var tie *model.Spanner
	for _, sp := range score.Spanners {
		if sp.Kind == model.SpannerTie {
			tie = sp
		}
	}
	if assert.NotNil(tie) {
		assert.Equal(1, tie.First().MeasureNum)
		assert.Equal(2, tie.Last().MeasureNum)
		assert.Equal("start", tie.First().Tie)
		assert.Equal("stop", tie.Last().Tie)
	}
}

func TestDecodeWedge(t *testing.T) {
	assert := assert.New(t)
	score := decodeFixture(t)

	var wedge *model.Spanner
	for _, sp := range score.Spanners {
		if sp.Kind == model.SpannerCrescendo {
			wedge = sp
		}
	}
	if assert.NotNil(wedge) {
		assert.Equal(1, wedge.First().MeasureNum)
		assert.Equal(model.B(0, 1), wedge.First().Offset)
		assert.Equal(2, wedge.Last().MeasureNum)
		assert.Equal(model.Whole(2), wedge.Last().Offset)
	}
}

func TestDecodeLayout(t *testing.T) {
	assert := assert.New(t)
	score := decodeFixture(t)

	m2 := score.Parts[0].Measures[1]
	if assert.NotNil(m2.Layout) {
		assert.True(m2.Layout.NewSystem)
		assert.False(m2.Layout.NewPage)
	}
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)
	orig := decodeFixture(t)

	var buf bytes.Buffer
	if err := Encode(&buf, orig); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	back, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode of encoded output failed: %v", err)
	}

	assert.Equal(orig.WorkTitle, back.WorkTitle)
	assert.Len(back.Parts, 2)

	origNotes := orig.AllNotes()
	backNotes := back.AllNotes()
	if assert.Equal(len(origNotes), len(backNotes)) {
		for i := range origNotes {
			assert.Equal(0, origNotes[i].Offset.Cmp(backNotes[i].Offset), "offset of note %d", i)
			assert.Equal(0, origNotes[i].Duration.Cmp(backNotes[i].Duration), "duration of note %d", i)
			assert.Equal(origNotes[i].Rest, backNotes[i].Rest, "rest flag of note %d", i)
		}
	}

	kinds := func(s *model.Score) map[string]int {
		res := make(map[string]int)
		for _, sp := range s.Spanners {
			res[sp.Kind]++
		}
		return res
	}
	assert.Equal(kinds(orig), kinds(back))

	assert.Len(back.Parts[0].Measures[0].Dynamics, 1)
	assert.NotNil(back.Parts[0].Measures[1].Layout)

	lyric := back.Parts[0].Measures[0].VoiceByID("1").Notes[0].Lyrics
	if assert.Len(lyric, 1) {
		assert.Equal("Sun", lyric[0].Text)
	}
}

func TestProbeShape(t *testing.T) {
	assert := assert.New(t)

	shape, err := Probe([]byte(closedScoreXML))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	assert.Equal(2, shape.PartCount)
	assert.Equal([]string{"1", "2"}, shape.VoiceIDs[0])
	assert.Equal([]string{"5", "6"}, shape.VoiceIDs[1])
	assert.Equal(2, shape.Measures)
	assert.Equal(15, shape.Notes)
}

func TestProbeRejectsNonScore(t *testing.T) {
	_, err := Probe([]byte("<html><body>nope</body></html>"))
	if err == nil {
		t.Fatal("expected an error for a non-MusicXML document")
	}
}
