package main

import (
	"fmt"
	"io"
	"strings"
)

// printTable writes rows as a bordered table sized to its widest cells.
func printTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, len(header))
		for i := range header {
			if i < len(r) {
				row[i] = r[i]
			}
			widths[i] = maxInt(widths[i], len(row[i]))
		}
		cells = append(cells, row)
	}

	parts := make([]string, len(widths))
	for i, wd := range widths {
		parts[i] = strings.Repeat("-", wd)
	}
	sep := "+-" + strings.Join(parts, "-+-") + "-+\n"

	line := func(row []string) {
		padded := make([]string, len(row))
		for i, c := range row {
			padded[i] = pad(c, widths[i])
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(padded, " | "))
	}

	fmt.Fprint(w, sep)
	line(header)
	fmt.Fprint(w, sep)
	for _, row := range cells {
		line(row)
	}
	fmt.Fprint(w, sep)
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
