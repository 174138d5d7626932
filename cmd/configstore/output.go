package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/groblegark/configstore/internal/model"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// bodyKeys orders a lookup body for display: Data first, then the rest
// alphabetically.
func bodyKeys(body map[string]any) []string {
	keys := make([]string, 0, len(body))
	for k := range body {
		if k != "Data" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := body["Data"]; ok {
		keys = append([]string{"Data"}, keys...)
	}
	return keys
}

func printRecordTable(w io.Writer, body map[string]any) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range bodyKeys(body) {
		fmt.Fprintf(tw, "%s:\t%s\n", k, formatValue(body[k]))
	}
	tw.Flush()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

func printModelsTable(w io.Writer, models []model.ModelInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tTABLE\tFIELDS")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", m.Name, m.Table, len(m.Fields))
	}
	tw.Flush()
}
