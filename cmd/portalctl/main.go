// Command portalctl is a terminal client for the education portal. It keeps
// its session in the user config directory between runs.
package main

import (
	"errors"
	"fmt"
	"os"

	"eduportal/internal/api"
	"eduportal/internal/config"
	"eduportal/internal/forms"
	"eduportal/internal/session"
)

func main() {
	cfg := config.Load()
	path, err := session.DefaultFilePath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot locate config directory:", err)
		os.Exit(1)
	}

	cli := &commandLine{
		upstream: api.New(cfg.UpstreamURL, cfg.UpstreamTimeout),
		sessions: session.NewManager(session.NewFileStore(path), cfg.SessionTTL),
		in:       os.Stdin,
		out:      os.Stdout,
		pageSize: cfg.PageSize,
		debounce: cfg.SearchDebounce,
	}
	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		var fields forms.Errors
		if errors.As(err, &fields) {
			for k, v := range fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", k, v)
			}
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", api.Message(err))
		os.Exit(1)
	}
}
