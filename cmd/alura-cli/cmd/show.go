package cmd

import (
	"fmt"
	"os"

	"aluraget/lib/scrapers/alura/view"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <course-url>",
	Short: "Prints the section and item tree of a course.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		course := view.NewCourse(client, args[0])

		sections, err := course.Sections(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Section", "#", "Kind", "Title", "Done"})

		for _, section := range sections {
			items, err := section.Items(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			for _, item := range items {
				info := item.Info()
				done := ""
				if info.Done {
					done = "x"
				}
				t.AppendRow(table.Row{
					fmt.Sprintf("%s. %s", section.Index, section.Title),
					info.Index,
					info.Kind.String(),
					info.Title,
					done,
				})
			}
			t.AppendSeparator()
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
