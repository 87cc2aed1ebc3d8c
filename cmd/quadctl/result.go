package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quadcore/quadcore/internal/term"
)

// printRows renders a query result set either as a tab-separated text
// table (unbound cells left blank, matching SPARQL's "absent from the
// row" convention) or as a JSON CLIResponse envelope whose data holds
// the variable list and an array of {var: lexical-form} objects.
func printRows(f *OutputFormatter, vars []string, rows []map[string]term.Value) error {
	if f.Format == "json" {
		out := make([]map[string]string, len(rows))
		for i, r := range rows {
			obj := make(map[string]string, len(vars))
			for _, v := range vars {
				if val, ok := r[v]; ok {
					obj[v] = formatValue(val)
				}
			}
			out[i] = obj
		}
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: map[string]interface{}{
			"vars": vars,
			"rows": out,
		}})
	}

	fmt.Fprintln(f.Writer, strings.Join(vars, "\t"))
	for _, r := range rows {
		cells := make([]string, len(vars))
		for i, v := range vars {
			if val, ok := r[v]; ok {
				cells[i] = formatValue(val)
			}
		}
		fmt.Fprintln(f.Writer, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(f.Writer, "(%d rows)\n", len(rows))
	return nil
}
