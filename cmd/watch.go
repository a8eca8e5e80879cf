package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/satbsplit/pipeline"
	"github.com/spf13/cobra"
)

var watchOutDir string

func init() {
	watchCmd.Flags().StringVarP(&watchOutDir, "out", "o", "", "output directory (default <input>_voices)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <input>",
	Short: "Re-splits whenever the input file changes",
	Long:  `Re-splits whenever the input file changes`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watch(args[0])
	},
}

// watch polls the input's mtime and re-runs the split after edits settle.
// Notation editors save in bursts, so runs are debounced.
func watch(inputPath string) error {
	split := func() {
		if _, err := Split(inputPath, watchOutDir, pipeline.DefaultOptions()); err != nil {
			fmt.Printf("split failed: %v\n", err)
		}
	}
	split()

	debounced := debounce.New(500 * time.Millisecond)

	var lastMod time.Time
	if info, err := os.Stat(inputPath); err == nil {
		lastMod = info.ModTime()
	}

	fmt.Printf("Watching %v for changes...\n", inputPath)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		info, err := os.Stat(inputPath)
		if err != nil {
			continue
		}
		if info.ModTime().After(lastMod) {
			lastMod = info.ModTime()
			debounced(split)
		}
	}
	return nil
}
