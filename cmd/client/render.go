package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"sheetstore/internal/query"
)

// Color definitions for the interface
var (
	colorOK   = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorErr  = color.New(color.FgRed, color.Bold).SprintFunc()
	colorInfo = color.New(color.FgBlue).SprintFunc()
)

// renderResult prints query results as a table with a stable column order:
// "id" first, the rest alphabetical, built from the union of row fields.
func renderResult(result *query.Result) {
	if len(result.Results) == 0 {
		fmt.Println(colorInfo("No results."))
	} else {
		fieldSet := make(map[string]struct{})
		for _, row := range result.Results {
			for field := range row {
				fieldSet[field] = struct{}{}
			}
		}
		var fields []string
		for field := range fieldSet {
			if field != "id" {
				fields = append(fields, field)
			}
		}
		sort.Strings(fields)
		if _, hasID := fieldSet["id"]; hasID {
			fields = append([]string{"id"}, fields...)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader(fields)
		for _, row := range result.Results {
			cells := make([]string, len(fields))
			for i, field := range fields {
				if v, ok := row[field]; ok {
					cells[i] = formatCell(v)
				}
			}
			table.Append(cells)
		}
		table.Render()
	}

	if result.Count != nil {
		fmt.Println(colorInfo(fmt.Sprintf("Count: %d", *result.Count)))
	}
	if p := result.Pagination; p != nil {
		fmt.Println(colorInfo(fmt.Sprintf("Page %d (limit %d) of %d total rows", p.Page, p.Limit, p.Total)))
	}
}

func formatCell(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderList(header string, items []string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{header})
	for _, item := range items {
		table.Append([]string{item})
	}
	table.Render()
}

// clearScreen clears the terminal screen.
func clearScreen() {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "cls")
	default:
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	_ = cmd.Run()
}
