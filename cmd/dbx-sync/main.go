// dbx-sync - browse a Databricks workspace and mirror notebooks to a local folder.
package main

import (
	"os"

	"github.com/dbxsync/dbx-sync/internal/cli"
	"github.com/dbxsync/dbx-sync/internal/version"
)

// Version information, overridden via -ldflags at release time
var (
	Version   = "v0.3.0-dev"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
