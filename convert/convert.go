// Package convert unpacks MuseScore .mscz containers into MusicXML by
// shelling out to the MuseScore binary.
package convert

import (
	"archive/zip"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jsphweid/satbsplit/constants"
)

// CheckAvailable reports whether the MuseScore binary can be run.
func CheckAvailable() bool {
	cmd := exec.Command(constants.GetMuseScoreCmd(), "--version")
	return cmd.Run() == nil
}

// ValidateContainer checks that the file is a zip archive holding a .mscx
// score, which is what a MuseScore container looks like from outside.
func ValidateContainer(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%v is not a valid .mscz archive: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if strings.HasSuffix(f.Name, ".mscx") {
			return nil
		}
	}
	return fmt.Errorf("%v contains no .mscx score", path)
}

// ToMusicXML converts the container and returns the path of a temporary
// MusicXML file. The caller removes it; its generated name must never be
// used for anything except reading the bytes back.
func ToMusicXML(msczPath string) (string, error) {
	if err := ValidateContainer(msczPath); err != nil {
		return "", err
	}

	tmp := filepath.Join(os.TempDir(), uuid.New().String()+".musicxml")

	fmt.Printf("Converting %v to MusicXML...\n", msczPath)
	cmd := exec.Command(constants.GetMuseScoreCmd(), msczPath, "-o", tmp)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("MuseScore conversion failed: %v: %s", err, out)
	}
	return tmp, nil
}
