package cmd

import (
	"fmt"
	"os"

	"aluraget/lib/scrapers/alura/edit"
	"aluraget/lib/scrapers/alura/view"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(answerCmd)
}

var answerCmd = &cobra.Command{
	Use:   "answer <item-url> [alternative-id...]",
	Short: "Answers a single question item, with the page's own correct alternatives unless ids are given.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		course := view.NewCourse(client, args[0])

		item, err := course.GetItem(ctx, args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		content, err := item.GetContent(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		if content.Question == nil {
			fmt.Fprintln(os.Stderr, "item is not a question:", item.Info().Kind.String())
			os.Exit(1)
		}

		if len(args) > 1 {
			err = edit.SendAnswers(ctx, client, content.Question, args[1:])
		} else {
			err = edit.Resolve(ctx, client, content.Question)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Submitted", "Text"})
		for _, answer := range content.Question.Answers {
			submitted := ""
			if answer.Selected {
				submitted = "x"
			}
			t.AppendRow(table.Row{answer.Id, submitted, answer.Text})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
