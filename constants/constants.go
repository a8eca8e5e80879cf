package constants

import "os"

// GetMuseScoreCmd returns the notation-editor binary used to unpack .mscz
// containers into MusicXML.
func GetMuseScoreCmd() string {
	cmd := os.Getenv("MSCORE_PATH")
	if cmd != "" {
		return cmd
	}
	return "mscore"
}

const (
	Soprano = "Soprano"
	Alto    = "Alto"
	Tenor   = "Tenor"
	Bass    = "Bass"
)

// VoiceNames in score order. Every loop over the four derived scores walks
// this slice so iteration order never depends on a map.
var VoiceNames = []string{Soprano, Alto, Tenor, Bass}

// Canonical closed-score voice ids. The upstream MuseScore exporter puts ids
// "5" and "6" on the second staff, not "1" and "2".
const (
	SopranoVoiceID = "1"
	AltoVoiceID    = "2"
	TenorVoiceID   = "5"
	BassVoiceID    = "6"
)

const (
	ClefTreble    = "treble"
	ClefTreble8vb = "treble-8vb"
	ClefBass      = "bass"
)

// Offset comparisons tolerate 1/1024 of a quarter note.
const (
	OffsetToleranceNum = 1
	OffsetToleranceDen = 1024
)
