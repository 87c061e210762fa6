package cmd

import (
	"fmt"
	"os"
	"strings"

	"aluraget/services/downloader"

	"github.com/spf13/cobra"
)

var downloadListFile string

func init() {
	downloadCmd.Flags().StringVar(&downloadListFile, "file", "",
		"text file with one course url per line")
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download [course-url...]",
	Short: "Mirrors the videos and documents of one or more courses to the download directory.",
	Run: func(cmd *cobra.Command, args []string) {
		if config.DownloadDir == "" {
			fmt.Fprintln(os.Stderr, "download_dir is not set in alura.json5")
			os.Exit(1)
		}

		urls := args
		if downloadListFile != "" {
			raw, err := os.ReadFile(downloadListFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			for _, line := range strings.Split(string(raw), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				urls = append(urls, line)
			}
		}
		if len(urls) == 0 {
			fmt.Fprintln(os.Stderr, "no course urls given")
			os.Exit(1)
		}

		service := downloader.NewService(client, config.DownloadDir)
		err := service.DownloadList(cmd.Context(), urls)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	},
}
