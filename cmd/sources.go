package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/plugins"
	"github.com/xgi/houdoku-sub000/utils"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered content sources and trackers",
	Run:   runSources,
}

func init() {
	RootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) {
	if configPath != "" {
		utils.LoadConfig(configPath)
	} else {
		utils.Main()
	}

	interval := time.Duration(utils.AppConfig.Network.MinRequestIntervalMS) * time.Millisecond
	manager := plugins.NewManager(content.NewFetcher(interval))

	fmt.Println("content sources:")
	for _, src := range manager.ContentSources() {
		fmt.Printf("  %3d  %-12s %s\n", src.ID(), src.Name(), src.BaseURL())
	}
	fmt.Println("info sources:")
	for _, src := range manager.InfoSources() {
		fmt.Printf("  %3d  %s\n", src.ID(), src.Name())
	}
	fmt.Println("trackers:")
	for _, tracker := range manager.Trackers() {
		authed := ""
		if tracker.IsAuthenticated() {
			authed = " (authenticated)"
		}
		fmt.Printf("  %3d  %s%s\n", tracker.ID(), tracker.Name(), authed)
	}
}
