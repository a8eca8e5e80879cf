package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "satbsplit",
	Short: "Split closed-score SATB into four voice parts",
	Long:  `Splits a two-staff closed-score SATB file (.musicxml or .mscz) into four single-staff voice scores.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
