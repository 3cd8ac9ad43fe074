package main

import (
	"fmt"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// newFollowCmd builds the "follow" dev subcommand: tail -f for consensusd's
// own log file, useful when it's running under a process supervisor that
// swallows stdio.
func newFollowCmd() *cobra.Command {
	var fromStart bool

	cmd := &cobra.Command{
		Use:   "follow [path]",
		Short: "Tail a consensusd log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return follow(args[0], fromStart)
		},
	}
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "start at the beginning of the file instead of the end")
	return cmd
}

func follow(path string, fromStart bool) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: startLocation(fromStart),
	})
	if err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	for line := range t.Lines {
		if line.Err != nil {
			return fmt.Errorf("follow: %w", line.Err)
		}
		fmt.Println(line.Text)
	}
	return t.Err()
}

func startLocation(fromStart bool) *tail.SeekInfo {
	if fromStart {
		return &tail.SeekInfo{Whence: 0}
	}
	return nil
}
