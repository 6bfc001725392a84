package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/platinummonkey/omniverlay/pkg/extensions"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

func writeExtensionTable(w io.Writer, infos []extensions.ExtensionInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENABLED\tLAYOUT")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", info.Name, info.State.IsEnabled, formatLayout(info.Layout))
	}
	return tw.Flush()
}

// formatLayout renders a layout as WIDTHxHEIGHT+X+Y
func formatLayout(layout *extensions.ExtensionLayout) string {
	if layout == nil {
		return "-"
	}
	return fmt.Sprintf("%dx%d+%d+%d", layout.Width, layout.Height, layout.X, layout.Y)
}

func writeDocumentList(w io.Writer, current string, names []string) {
	for _, name := range names {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, name)
	}
}
