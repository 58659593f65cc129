package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/loader"
	"github.com/xgi/houdoku-sub000/plugins"
	"github.com/xgi/houdoku-sub000/store"
	"github.com/xgi/houdoku-sub000/ui"
	"github.com/xgi/houdoku-sub000/utils"
)

var configPath string

var RootCmd = &cobra.Command{
	Use:   "houdoku",
	Short: "Terminal manga reader",
	Long:  "Read and track manga from online sources in the terminal",
	RunE:  runApp,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml")
}

func runApp(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		utils.LoadConfig(configPath)
	} else {
		utils.Main()
	}

	if err := os.MkdirAll(utils.AppConfig.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %v", err)
	}

	// The TUI owns stdout, so background jobs log to a file instead.
	logFile, err := os.OpenFile(filepath.Join(utils.AppConfig.DataDir, "houdoku.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	library, err := store.LoadLibrary(utils.AppConfig.DataDir)
	if err != nil {
		return fmt.Errorf("failed to load library: %v", err)
	}

	interval := time.Duration(utils.AppConfig.Network.MinRequestIntervalMS) * time.Millisecond
	fetcher := content.NewFetcher(interval)
	manager := plugins.NewManager(fetcher)
	ld := loader.New(manager, fetcher, library)

	if err := ui.RunApp(ld, library, manager, utils.AppConfig.DataDir); err != nil {
		return err
	}

	// The quit path saves too; this covers abnormal program exits.
	if err := store.SaveLibrary(utils.AppConfig.DataDir, library); err != nil {
		return fmt.Errorf("failed to save library: %v", err)
	}
	return nil
}
