package cmd

import (
	"fmt"

	"github.com/jsphweid/satbsplit/musicxml"
	"github.com/jsphweid/satbsplit/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Inspects a parsed score",
	Long:  `Inspects a parsed score`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	score, err := musicxml.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("work-title: %v\n", score.WorkTitle)
	fmt.Printf("movement-title: %v\n", score.MovementTitle)
	fmt.Printf("composer: %v\n", score.Composer)

	for i, part := range score.Parts {
		notes := 0
		voiceIDs := make(map[string]int)
		for _, m := range part.Measures {
			for _, v := range m.Voices {
				voiceIDs[v.ID] += len(v.Notes)
				for _, n := range v.Notes {
					if !n.Rest {
						notes++
					}
				}
			}
		}
		fmt.Printf("part %d (%v): %d measures, %d notes\n", i, part.Name, len(part.Measures), notes)
		for _, id := range util.GetKeys(voiceIDs) {
			fmt.Printf("  voice %v: %d elements\n", id, voiceIDs[id])
		}
	}

	kinds := make(map[string]int)
	for _, sp := range score.Spanners {
		kinds[sp.Kind]++
	}
	for _, kind := range util.GetKeys(kinds) {
		fmt.Printf("spanners (%v): %d\n", kind, kinds[kind])
	}
	return nil
}
