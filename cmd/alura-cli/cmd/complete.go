package cmd

import (
	"fmt"
	"os"

	"aluraget/lib/scrapers/alura/view"
	"aluraget/services/completer"

	"github.com/spf13/cobra"
)

var completeOpts = completer.DefaultOptions()

func init() {
	completeCmd.Flags().DurationVar(&completeOpts.VideoWait, "video-wait",
		completeOpts.VideoWait, "pause after marking a video watched")
	completeCmd.Flags().DurationVar(&completeOpts.QuestionWait, "question-wait",
		completeOpts.QuestionWait, "pause after answering a question")
	completeCmd.Flags().DurationVar(&completeOpts.DocumentWait, "document-wait",
		completeOpts.DocumentWait, "pause after marking a document read")
	rootCmd.AddCommand(completeCmd)
}

var completeCmd = &cobra.Command{
	Use:   "complete <course-url>...",
	Short: "Marks every pending item of the given courses as completed.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service := completer.NewService(client, completeOpts)

		for _, url := range args {
			course := view.NewCourse(client, url)
			err := service.CompleteCourse(cmd.Context(), course)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			fmt.Println("completed", course.Slug)
		}
	},
}
