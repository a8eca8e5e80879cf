package cmd

import (
	"fmt"
	"os"

	"github.com/jsphweid/satbsplit/identify"
	"github.com/jsphweid/satbsplit/model"
	"github.com/jsphweid/satbsplit/musicxml"
	"github.com/jsphweid/satbsplit/pipeline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Checks whether a score is splittable",
	Long:  `Checks whether a score is splittable`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(args[0])
	},
}

func check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	shape, err := musicxml.Probe(data)
	if err != nil {
		return err
	}

	fmt.Printf("parts: %d\n", shape.PartCount)
	for i, ids := range shape.VoiceIDs {
		fmt.Printf("part %d voices: %v\n", i, ids)
	}
	fmt.Printf("measures: %d\n", shape.Measures)
	fmt.Printf("notes: %d\n", shape.Notes)

	score, _, err := pipeline.Load(path)
	if err != nil {
		return err
	}
	for _, w := range structureWarnings(score) {
		fmt.Printf("warning: %v\n", w)
	}

	if _, err := identify.Identify(score); err != nil {
		fmt.Printf("NOT splittable: %v\n", err)
		return nil
	}
	fmt.Println("Splittable: canonical closed-score SATB layout detected")
	return nil
}

func structureWarnings(score *model.Score) []string {
	var warnings []string
	if score.WorkTitle == "" {
		warnings = append(warnings, "score lacks a work title; output titles will use the file name")
	}
	for i, part := range score.Parts {
		if len(part.Measures) == 0 {
			warnings = append(warnings, fmt.Sprintf("part %d has no measures", i))
			continue
		}
		first := part.Measures[0]
		if first.Attr == nil || first.Attr.Time == nil {
			warnings = append(warnings, fmt.Sprintf("part %d has no time signature", i))
		}
		if first.Attr == nil || len(first.Attr.Clefs) == 0 {
			warnings = append(warnings, fmt.Sprintf("part %d has no clef information", i))
		}
	}
	return warnings
}
