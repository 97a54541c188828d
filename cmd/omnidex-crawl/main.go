package main

import (
	"fmt"
	"os"

	"github.com/ksysoev/omnidex-crawl/pkg/cmd"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

const appName = "omnidex-crawl"

func main() {
	root := cmd.InitCommand(cmd.BuildInfo{
		Version: version,
		AppName: appName,
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
