package cmd

import (
	"fmt"
	"os"

	"github.com/jsphweid/satbsplit/midi"
	"github.com/jsphweid/satbsplit/pipeline"
	"github.com/spf13/cobra"
)

var previewOut string

func init() {
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "preview.mid", "output MIDI file")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <input>",
	Short: "Renders the split voices to a MIDI file",
	Long:  `Renders the split voices to a MIDI file`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return preview(args[0])
	},
}

func preview(inputPath string) error {
	score, baseName, err := pipeline.Load(inputPath)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(score, baseName, pipeline.DefaultOptions())
	if err != nil {
		return err
	}

	s := midi.Render(result.Voices)
	f, err := os.Create(previewOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := s.WriteTo(f); err != nil {
		return fmt.Errorf("writing MIDI preview: %w", err)
	}
	fmt.Printf("Wrote %v\n", previewOut)
	return nil
}
