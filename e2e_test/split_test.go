//go:build e2e
// +build e2e

package e2e_test

import (
	"archive/zip"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jsphweid/satbsplit/cmd"
	"github.com/jsphweid/satbsplit/musicxml"
	"github.com/jsphweid/satbsplit/pipeline"
	"github.com/stretchr/testify/assert"
)

const closedScoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <work><work-title>Evensong</work-title></work>
  <part-list>
    <score-part id="P1"><part-name>Soprano Alto</part-name></score-part>
    <score-part id="P2"><part-name>Tenor Bass</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>2</divisions>
        <time><beats>4</beats><beat-type>4</beat-type></time>
        <clef><sign>G</sign><line>2</line></clef>
      </attributes>
      <direction placement="below">
        <direction-type><dynamics><p/></dynamics></direction-type>
      </direction>
      <note>
        <pitch><step>G</step><octave>4</octave></pitch>
        <duration>8</duration><voice>1</voice><type>whole</type>
        <lyric number="1"><syllabic>single</syllabic><text>Peace</text></lyric>
      </note>
      <backup><duration>8</duration></backup>
      <note>
        <pitch><step>E</step><octave>4</octave></pitch>
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
        <pitch><step>C</step><octave>4</octave></pitch>
        <duration>8</duration><voice>5</voice><type>whole</type>
      </note>
      <backup><duration>8</duration></backup>
      <note>
        <pitch><step>C</step><octave>3</octave></pitch>
        <duration>8</duration><voice>6</voice><type>whole</type>
      </note>
    </measure>
  </part>
</score-partwise>
`

func TestSplitCommandEndToEnd(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "Evensong.musicxml")
	if err := os.WriteFile(input, []byte(closedScoreXML), 0666); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "voices")
	created, err := cmd.Split(input, outDir, pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	assert.Len(created, 4)
	assert.Equal(filepath.Join(outDir, "Evensong-Soprano.musicxml"), created[0])

	for i, voice := range []string{"Soprano", "Alto", "Tenor", "Bass"} {
		score, err := musicxml.ReadFile(created[i])
		if err != nil {
			t.Fatalf("output %v does not parse: %v", created[i], err)
		}
		assert.Equal("Evensong ("+voice+")", score.WorkTitle, voice)
		assert.Len(score.Parts, 1, voice)
		assert.Len(score.Parts[0].Measures[0].Dynamics, 1, voice)

		note := score.Parts[0].Measures[0].SoleVoice().Notes[0]
		if assert.Len(note.Lyrics, 1, voice) {
			assert.Equal("Peace", note.Lyrics[0].Text, voice)
		}
	}
}

func TestServeHandlerEndToEnd(t *testing.T) {
	assert := assert.New(t)

	req := httptest.NewRequest(http.MethodPost, "/split?name=Evensong", strings.NewReader(closedScoreXML))
	w := httptest.NewRecorder()
	cmd.HandleSplit(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(200, resp.StatusCode)
	assert.Equal("application/zip", resp.Header.Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	assert.Len(zr.File, 4)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if _, err := musicxml.Decode(bytes.NewReader(data)); err != nil {
			t.Fatalf("entry %v does not parse: %v", f.Name, err)
		}
	}
	assert.Equal([]string{
		"Evensong-Soprano.musicxml",
		"Evensong-Alto.musicxml",
		"Evensong-Tenor.musicxml",
		"Evensong-Bass.musicxml",
	}, names)
}

func TestServeHandlerRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/split", strings.NewReader("not xml at all"))
	w := httptest.NewRecorder()
	cmd.HandleSplit(w, req)

	if w.Result().StatusCode == 200 {
		t.Fatal("expected a non-200 status for malformed input")
	}
}
