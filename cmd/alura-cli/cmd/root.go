package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"aluraget/lib/configutil"
	"aluraget/lib/httpcache"
	"aluraget/lib/scrapers/alura/core"
	"aluraget/lib/sqliteutil"
	"aluraget/lib/telemetry"

	"github.com/spf13/cobra"
)

type Config struct {
	// path to a Netscape or JSON cookie export of an alura session
	CookiePath string `json:"cookie_path"`
	// directory course mirrors are written into
	DownloadDir string `json:"download_dir"`
	// defaults to the latam instance
	BaseUrl string `json:"base_url"`
	// sqlite file backing the response cache, empty disables caching
	CachePath string `json:"cache_path"`
	// cached responses older than this are refetched, 0 keeps forever
	CacheTtlHours int `json:"cache_ttl_hours"`
}

var config Config

var client *core.Client

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "alura-cli",
	Short: "alura-cli scrapes, downloads and completes alura courses with a captured browser session.",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute(ctx context.Context) {
	cobra.OnInitialize(func() {
		telemetry.InitSlog(verbose)

		var err error
		config, err = configutil.ReadRecursively[Config]("alura.json5")
		if err != nil {
			fmt.Fprintln(os.Stderr, "could not read alura.json5:", err.Error())
			os.Exit(1)
		}

		var cache *httpcache.Cache
		if config.CachePath != "" {
			db, err := sqliteutil.OpenDB(httpcache.Schema, config.CachePath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "could not open response cache:", err.Error())
				os.Exit(1)
			}
			cache = httpcache.New(db, time.Hour*time.Duration(config.CacheTtlHours))
		}

		client, err = core.NewClient(ctx, core.ClientOptions{
			BaseUrl:    config.BaseUrl,
			CookiePath: config.CookiePath,
			Cache:      cache,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "could not create scraper client:", err.Error())
			os.Exit(1)
		}
	})

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
