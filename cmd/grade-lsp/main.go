package main

import (
	"os"

	"github.com/jsvensson/lutforge/internal/lsp"
	"github.com/spf13/pflag"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var version = "dev"

func main() {
	verbosity := pflag.IntP("verbosity", "v", 1, "log verbosity")
	logFile := pflag.String("log-file", "", "write logs to this file instead of stderr")
	pflag.Parse()

	// stdout carries the protocol, so logs never go there.
	var path *string
	if *logFile != "" {
		path = logFile
	}
	commonlog.Configure(*verbosity, path)

	s := lsp.NewServer(version)
	if err := s.Run(); err != nil {
		os.Exit(1)
	}
}
