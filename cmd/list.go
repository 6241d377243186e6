package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bessgo/pipeline"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered module classes",
	Long:  `List every module class registered in the builder registry, and the default naming template each uses for auto-generated instance names.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	listQuiet  bool
	listFormat string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "display only class names")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json)")
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	classes := reg.Classes()

	if listQuiet {
		for _, c := range classes {
			fmt.Println(c)
		}
		return nil
	}

	if listFormat == "json" {
		return outputJSON(reg, classes)
	}
	return outputTable(reg, classes)
}

func outputTable(reg *pipeline.Registry, classes []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "CLASS\tTEMPLATE")
	for _, class := range classes {
		b, _ := reg.Lookup(class)
		template := b.Template
		if template == "" {
			template = b.Class
		}
		fmt.Fprintf(w, "%s\t%s\n", b.Class, template)
	}
	return w.Flush()
}

func outputJSON(reg *pipeline.Registry, classes []string) error {
	type classItem struct {
		Class    string   `json:"class"`
		Template string   `json:"template"`
		Commands []string `json:"commands"`
	}
	items := make([]classItem, 0, len(classes))
	for _, class := range classes {
		b, _ := reg.Lookup(class)
		template := b.Template
		if template == "" {
			template = b.Class
		}
		cmds := make([]string, len(b.Commands))
		for i, c := range b.Commands {
			cmds[i] = c.Name
		}
		items = append(items, classItem{Class: b.Class, Template: template, Commands: cmds})
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}
