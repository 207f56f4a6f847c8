package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/protrace/internal/workflow"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderResults lays out one row per PRO. Override runs add the override
// outcome and the verified stage.
func renderResults(result *workflow.Result, override bool) string {
	headers := []string{"PRO", "Status", "Substatus", "Order", "Location", "Pickup"}
	if override {
		headers = append(headers, "Override", "Verified")
	}

	rows := make([][]string, 0, len(result.Results))
	for _, item := range result.Results {
		row := []string{item.PRO, item.Status, item.Substatus, item.OrderID, item.Location, item.Pickup}
		if override {
			row = append(row, overrideCell(item), verifiedCell(item))
		}
		rows = append(rows, row)
	}

	out := renderTable(headers, rows, nil)
	if override && result.TargetStatus != "" {
		out = fmt.Sprintf("target: %s\n%s", result.TargetStatus, out)
	}
	return out
}

func overrideCell(item workflow.ResultItem) string {
	switch {
	case item.OverrideOK:
		return "ok"
	case item.OverrideSkipped:
		return "skipped"
	default:
		return "failed: " + item.OverrideError
	}
}

func verifiedCell(item workflow.ResultItem) string {
	if item.Verified {
		return "yes"
	}
	if item.VerifiedStatus == "" {
		return "no"
	}
	return "no (" + item.VerifiedStatus + ")"
}
