package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/satbsplit/convert"
	"github.com/jsphweid/satbsplit/output"
	"github.com/jsphweid/satbsplit/pipeline"
	"github.com/jsphweid/satbsplit/share"
	"github.com/spf13/cobra"
)

var (
	splitOutDir     string
	splitNoDynamics bool
	splitNoLyrics   bool
	splitNoSpanners bool
	splitNoLayout   bool
	splitNoValidate bool
	splitBucket     string
	splitPrefix     string
)

func init() {
	splitCmd.Flags().StringVarP(&splitOutDir, "out", "o", "", "output directory (default <input>_voices)")
	splitCmd.Flags().BoolVar(&splitNoDynamics, "no-dynamics", false, "skip dynamics unification")
	splitCmd.Flags().BoolVar(&splitNoLyrics, "no-lyrics", false, "skip lyrics unification")
	splitCmd.Flags().BoolVar(&splitNoSpanners, "no-spanners", false, "skip spanner unification")
	splitCmd.Flags().BoolVar(&splitNoLayout, "no-layout", false, "skip layout/tempo unification")
	splitCmd.Flags().BoolVar(&splitNoValidate, "no-validate", false, "skip output validation")
	splitCmd.Flags().StringVar(&splitBucket, "upload-bucket", "", "S3 bucket to upload the parts to")
	splitCmd.Flags().StringVar(&splitPrefix, "upload-prefix", "", "S3 key prefix for uploads")
	rootCmd.AddCommand(splitCmd)
}

var splitCmd = &cobra.Command{
	Use:   "split <input>",
	Short: "Split a closed score into four voice parts",
	Long:  `Split a closed score into four voice parts`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipeline.Options{
			ApplyDynamicsUnification: !splitNoDynamics,
			ApplyLyricsUnification:   !splitNoLyrics,
			ApplySpannerUnification:  !splitNoSpanners,
			ApplyLayoutUnification:   !splitNoLayout,
			ValidateOutput:           !splitNoValidate,
		}
		_, err := Split(args[0], splitOutDir, opts)
		return err
	},
}

// Split runs the pipeline over the input file and writes the four parts.
// It returns the created file paths.
func Split(inputPath, outDir string, opts pipeline.Options) ([]string, error) {
	if strings.HasSuffix(strings.ToLower(inputPath), ".mscz") && !convert.CheckAvailable() {
		return nil, fmt.Errorf("MuseScore binary not found; install it or set MSCORE_PATH")
	}

	score, baseName, err := pipeline.Load(inputPath)
	if err != nil {
		return nil, err
	}

	result, err := pipeline.Run(score, baseName, opts)
	if err != nil {
		return nil, err
	}

	if outDir == "" {
		outDir = baseName + "_voices"
	}
	fmt.Printf("Writing voice parts to %v\n", outDir)
	created, err := output.WriteVoiceScores(result.Voices, outDir, baseName)
	if err != nil {
		return nil, err
	}

	if splitBucket != "" {
		fmt.Printf("Uploading to s3://%v/%v\n", splitBucket, splitPrefix)
		if _, err := share.UploadOutputs(splitBucket, splitPrefix, created); err != nil {
			return nil, err
		}
	}

	fmt.Printf("Done: %v\n", result.Stats.Summary())
	return created, nil
}
