package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/mesh-intelligence/xvault/internal/chain"
)

// emit writes v as indented JSON in --json mode and calls human otherwise.
func (a *app) emit(v any, human func(w io.Writer) error) error {
	if flags.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	}
	return human(a.out)
}

// table renders rows (header first) with pterm.
func table(w io.Writer, rows [][]string) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func (a *app) printReceipt(r *chain.Receipt, l *ledger) error {
	return a.emit(r, func(w io.Writer) error {
		mark := pterm.FgGreen.Sprint("✓")
		if !r.Succeeded() {
			mark = pterm.FgRed.Sprint("✗")
		}
		fmt.Fprintf(w, "%s %s(%s) from %s in block %d\n",
			mark, r.Method, strings.Join(r.Args, ", "), displayName(l, r.From), r.Block)
		for _, lg := range r.Logs {
			fmt.Fprintf(w, "  %s %s\n", lg.Event, formatFields(lg.Fields))
		}
		return nil
	})
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + fields[k]
	}
	return strings.Join(parts, " ")
}
