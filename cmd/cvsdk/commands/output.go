package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
)

type listItem struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func (o *rootOptions) printJSON(v interface{}) error {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRegistry writes a registry as a NAME/ID table or a JSON list.
func (o *rootOptions) printRegistry(reg *commcell.Registry) error {
	all := reg.All()
	items := make([]listItem, 0, len(all))
	for name, id := range all {
		items = append(items, listItem{Name: name, ID: id})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	if o.jsonOutput {
		return o.printJSON(items)
	}
	return renderTable(o.stdout, items)
}

func renderTable(w io.Writer, items []listItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\n", it.Name, it.ID)
	}
	return tw.Flush()
}

// printHandle reports a submitted operation.
func (o *rootOptions) printHandle(h *commcell.Handle) error {
	if o.jsonOutput {
		out := map[string]interface{}{}
		if h.Scheduled() {
			out["schedule"] = h.Schedule.TaskID()
		} else {
			ids := make([]string, len(h.Jobs))
			for i, j := range h.Jobs {
				ids[i] = j.ID()
			}
			out["jobs"] = ids
		}
		return o.printJSON(out)
	}
	_, err := fmt.Fprintf(o.stdout, "submitted: %s\n", h)
	return err
}
