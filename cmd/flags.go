package cmd

import (
	"flag"
)

type Flags struct {
	Once    bool
	Version bool
	Config  string
}

func ParseFlags() (Flags, string) {
	flags := Flags{}

	flag.BoolVar(&flags.Once, "once", false, "Run a single import and exit")
	flag.BoolVar(&flags.Version, "v", false, "Display version information")
	flag.BoolVar(&flags.Version, "version", false, "Display version information")
	flag.StringVar(&flags.Config, "config", "", "Path to the config file")

	flag.Parse()

	args := flag.Args()
	var subcommand string

	if len(args) > 0 {
		subcommand = args[0]
	}

	return flags, subcommand
}
