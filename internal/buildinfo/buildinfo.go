// Package buildinfo carries version data injected at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/communityhub/internal/buildinfo.Version=1.0.0"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version   = "N/A"
	BuildDate = "N/A"
	Commit    = "N/A"
)

func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
