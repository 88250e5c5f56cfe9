package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gistkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string     path of the local SQLite database
//	-b string     remote backend: gist, s3 or "" for local only
//	-g string     gist id
//	-p duration   poll interval, e.g. 2m
//	-e string     equality mode: count or hash
//	-l string     log level
//	-log-file     rotate logs into this file instead of stderr
//	-auto-sync    poll the remote in the background
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-b", "-g", "-p", "-e", "-l", "-log-file", "-auto-sync"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "remote backend (gist|s3)")
	fs.StringVar(&cfg.GistID, "g", cfg.GistID, "gist id")
	fs.DurationVar(&cfg.PollInterval, "p", cfg.PollInterval, "remote poll interval")
	fs.StringVar(&cfg.Equality, "e", cfg.Equality, "equality mode (count|hash)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file")
	fs.BoolVar(&cfg.AutoSync, "auto-sync", cfg.AutoSync, "poll the remote in the background")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
