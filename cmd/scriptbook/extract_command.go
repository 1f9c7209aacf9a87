package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <document>",
		Short: "Convert one legacy document and print its normalized text",
		Long:  "Run the first available converter against a .doc script and print the text the build would split, bypassing the extraction cache.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			result, err := ctx.newExtractor(cfg, logger).Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := io.WriteString(out, result.Text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "converted with %s in %s\n", result.Converter, result.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
}
