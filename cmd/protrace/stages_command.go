package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStagesCommand(ctx *commandContext, jsonFlag *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the configured stage codes and their descriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}

			stages := ctx.tms.Stages().Codes()
			if *jsonFlag {
				return writeJSON(cmd, stages)
			}

			rows := make([][]string, 0, len(stages))
			for _, s := range stages {
				rows = append(rows, []string{strconv.Itoa(s.Code), s.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Code", "Description"},
				rows,
				[]columnAlignment{alignRight, alignLeft},
			))
			return nil
		},
	}
}
