// Package output writes the four finalized voice scores to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/model"
	"github.com/jsphweid/satbsplit/musicxml"
)

// FileName builds the conventional output name for a voice part.
func FileName(base, voice string) string {
	return fmt.Sprintf("%v-%v.musicxml", base, voice)
}

// WriteVoiceScores writes one MusicXML file per voice into outDir and
// returns the created paths in voice order.
func WriteVoiceScores(voices map[string]*model.Score, outDir, base string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0777); err != nil {
		return nil, fmt.Errorf("could not create output dir: %w", err)
	}

	var created []string
	for _, name := range constants.VoiceNames {
		path := filepath.Join(outDir, FileName(base, name))
		if err := musicxml.WriteFile(path, voices[name]); err != nil {
			return nil, fmt.Errorf("writing %v: %w", path, err)
		}
		fmt.Printf("  %v: %v\n", name, path)
		created = append(created, path)
	}
	return created, nil
}
