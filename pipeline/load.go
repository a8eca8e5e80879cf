package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/jsphweid/satbsplit/convert"
	"github.com/jsphweid/satbsplit/errs"
	"github.com/jsphweid/satbsplit/model"
	"github.com/jsphweid/satbsplit/musicxml"
	"github.com/jsphweid/satbsplit/util"
)

// Load reads a MusicXML or .mscz input and returns the score plus the base
// name of the ORIGINAL input file. For .mscz inputs a temporary MusicXML
// file is produced and deleted; its generated name never reaches callers,
// so it cannot leak into output metadata.
func Load(path string) (*model.Score, string, error) {
	baseName := util.BaseName(path)

	working := path
	if strings.HasSuffix(strings.ToLower(path), ".mscz") {
		tmp, err := convert.ToMusicXML(path)
		if err != nil {
			return nil, "", &errs.ProcessingError{Stage: errs.StageLoad, Detail: err.Error()}
		}
		defer os.Remove(tmp)
		working = tmp
	}

	data, err := os.ReadFile(working)
	if err != nil {
		return nil, "", &errs.ProcessingError{Stage: errs.StageLoad, Detail: err.Error()}
	}

	// Shape-check the raw document before typed decoding so a malformed
	// input fails with a structural diagnostic, not a parse trace.
	shape, err := musicxml.Probe(data)
	if err != nil {
		return nil, "", &errs.InvalidScoreError{Detail: err.Error()}
	}
	if shape.Notes == 0 {
		return nil, "", &errs.InvalidScoreError{Detail: "score contains no notes"}
	}

	score, err := musicxml.Decode(strings.NewReader(string(data)))
	if err != nil {
		return nil, "", &errs.InvalidScoreError{Detail: err.Error()}
	}

	fmt.Printf("Loaded %v: %d parts, %d measures, %d notes\n",
		path, shape.PartCount, shape.Measures, shape.Notes)
	return score, baseName, nil
}
