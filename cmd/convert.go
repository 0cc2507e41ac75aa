package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhcgn/emlbox/config"
	"github.com/dhcgn/emlbox/convert"
	"github.com/dhcgn/emlbox/filter"
	"github.com/dhcgn/emlbox/progress"
)

func newEmlToMboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eml-to-mbox <input_directory> <output_file>",
		Short: "Convert a directory of .eml files to a single .mbox file",
		Args:  cobra.MatchAll(cobra.ExactArgs(2), filePathArg(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			f, err := filter.New(cfg.Filter)
			if err != nil {
				return fmt.Errorf("create filter: %w", err)
			}

			summary, err := convert.EmlToMbox(convert.EmlToMboxOptions{
				InputDir:   args[0],
				OutputFile: args[1],
				Overwrite:  cfg.Overwrite,
				Filter:     f,
				Logger:     logger,
				NewProgress: func(total int) progress.Sink {
					return progress.New(total, "Converting eml files", cfg.ProgressEnabled())
				},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Conversion of %d eml files completed with %d errors: %s. Output saved to %q\n",
				summary.Processed(), summary.Errors, summary, args[1])
			return nil
		},
	}
	config.RegisterConversionFlags(cmd)
	return cmd
}

func newMboxToEmlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mbox-to-eml <input_file> <output_directory>",
		Short: "Convert a single .mbox file to an extracted directory of .eml files",
		Args:  cobra.MatchAll(cobra.ExactArgs(2), filePathArg(0)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			f, err := filter.New(cfg.Filter)
			if err != nil {
				return fmt.Errorf("create filter: %w", err)
			}

			summary, err := convert.MboxToEml(convert.MboxToEmlOptions{
				InputFile: args[0],
				OutputDir: args[1],
				Overwrite: cfg.Overwrite,
				Filter:    f,
				Logger:    logger,
				Progress:  progress.New(-1, "Extracting emails", cfg.ProgressEnabled()),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Conversion of %d emails completed with %d errors: %s. Output saved to %q\n",
				summary.Processed(), summary.Errors, summary, args[1])
			return nil
		},
	}
	config.RegisterConversionFlags(cmd)
	return cmd
}
