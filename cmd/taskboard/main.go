package main

import (
	"flag"
	"os"

	"github.com/taskboard-dev/taskboard/internal/cli"
	"github.com/taskboard-dev/taskboard/internal/client"
)

func main() {
	// Root flags (apply to every subcommand)
	configPath := flag.String("config", client.DefaultConfigPath(), "path to the client config file")
	serverURL := flag.String("server", "", "server base URL (overrides config)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	os.Exit(cli.Run(args, cli.Options{
		ConfigPath: *configPath,
		ServerURL:  *serverURL,
	}))
}
