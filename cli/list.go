package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listOutput string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored trees",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum number of trees to list, 0 for all")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "output format: table or json")
}

func runList(cmd *cobra.Command, args []string) error {
	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	sums, err := d.Profiles(listLimit)
	if err != nil {
		return err
	}

	switch listOutput {
	case "json":
		output, err := json.MarshalIndent(sums, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	case "table":
		if len(sums) == 0 {
			fmt.Println("No trees stored")
			return nil
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "Name", "Start", "Duration", "Nodes", "Source")
		for _, s := range sums {
			table.Append(
				fmt.Sprint(s.ID),
				s.Name,
				fmt.Sprintf("%.2f", s.Start),
				fmt.Sprintf("%.2f", s.Duration),
				fmt.Sprint(s.Nodes),
				fmt.Sprintf("%s#%d", s.Source, s.Seq),
			)
		}
		return table.Render()
	default:
		return fmt.Errorf("unknown output format %q", listOutput)
	}
	return nil
}
