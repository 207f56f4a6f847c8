package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/protrace/internal/workflow"
)

func newTraceCommand(ctx *commandContext, jsonFlag *bool) *cobra.Command {
	var fileFlag string

	cmd := &cobra.Command{
		Use:   "trace [PRO...]",
		Short: "Look up the current stage of one or more PROs",
		RunE: func(cmd *cobra.Command, args []string) error {
			pros, err := collectPROs(cmd.InOrStdin(), args, fileFlag)
			if err != nil {
				return err
			}
			return runLookup(cmd, ctx, *jsonFlag, workflow.Request{
				PROs: pros,
				Mode: workflow.ModeTrace,
			})
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read PROs from a file, one per line (- for stdin)")
	return cmd
}

func newOverrideCommand(ctx *commandContext, jsonFlag *bool) *cobra.Command {
	var (
		fileFlag   string
		stageFlag  int
		labelFlag  string
		actionFlag string
	)

	cmd := &cobra.Command{
		Use:   "override --stage N [PRO...]",
		Short: "Force PROs to a stage and verify the change",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("stage") {
				return fmt.Errorf("--stage is required")
			}
			pros, err := collectPROs(cmd.InOrStdin(), args, fileFlag)
			if err != nil {
				return err
			}

			stage := stageFlag
			return runLookup(cmd, ctx, *jsonFlag, workflow.Request{
				PROs: pros,
				Mode: workflow.ModeOverride,
				Override: &workflow.OverrideSpec{
					Enabled:    true,
					StageCode:  &stage,
					StageLabel: labelFlag,
					Action:     actionFlag,
				},
			})
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read PROs from a file, one per line (- for stdin)")
	cmd.Flags().IntVar(&stageFlag, "stage", 0, "Target stage code")
	cmd.Flags().StringVar(&labelFlag, "label", "", "Target stage label, used when the code is not in the stage table")
	cmd.Flags().StringVar(&actionFlag, "action", "", `Free-text action such as "move to Delivered"`)
	return cmd
}

func runLookup(cmd *cobra.Command, ctx *commandContext, asJSON bool, req workflow.Request) error {
	if err := ctx.ensure(); err != nil {
		return err
	}

	result, err := ctx.lookups.Lookup(cmd.Context(), req)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd, result)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderResults(result, req.Mode == workflow.ModeOverride))
	if result.VerifyError != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "verification trace failed: %s\n", result.VerifyError)
	}
	return nil
}

// collectPROs merges positional arguments with lines read from file.
// Blank lines and lines starting with # are skipped.
func collectPROs(stdin io.Reader, args []string, file string) ([]string, error) {
	pros := append([]string(nil), args...)

	if file != "" {
		r := stdin
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			pros = append(pros, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
	}

	if len(pros) == 0 {
		return nil, fmt.Errorf("no PROs given")
	}
	return pros, nil
}
