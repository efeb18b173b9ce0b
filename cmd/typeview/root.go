package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	outputFile string
	output     io.Writer
)

var rootCmd = &cobra.Command{
	Use:   "typeview",
	Short: "Type model viewer",
	Long: `typeview inspects the reflective member surface of a type model.

A model is a YAML description of types, their members and their
relationships. typeview loads it, builds the member cache over it and
answers the same queries the reflection layer would: full member lists,
binding-flag filtered views and single-member lookups.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = os.Stdout
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")

	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(lookupCmd)
}
