package main

import (
	"log"

	"github.com/xgi/houdoku-sub000/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
