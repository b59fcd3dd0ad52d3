package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.universe.tf/rendertrace/profile"
	"gopkg.in/yaml.v3"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print one stored tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "tree", "output format: tree, json or yaml")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tree id %q: %w", args[0], err)
	}

	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	root, err := d.Profile(id)
	if err != nil {
		return err
	}
	return writeTree(os.Stdout, root, showOutput)
}

func writeTree(w io.Writer, root *profile.Node, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(root)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return err
		}
		return enc.Close()
	case "tree":
		table := tablewriter.NewWriter(w)
		table.Header("Name", "View", "Start", "Duration")
		err := root.Walk(func(n *profile.Node, depth int) error {
			return table.Append(
				strings.Repeat("  ", depth)+n.Name,
				n.ViewID,
				fmt.Sprintf("%.2f", n.Start),
				fmt.Sprintf("%.2f", n.Duration),
			)
		})
		if err != nil {
			return err
		}
		return table.Render()
	}
	return fmt.Errorf("unknown output format %q", format)
}
