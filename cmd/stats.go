package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning progress per chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := context.Background()
		chats, err := rt.chats(ctx)
		if err != nil {
			return err
		}
		threads, err := report.Collect(ctx, chats)
		if err != nil {
			return err
		}

		fmt.Printf("%-32s  %-24s  %-12s  %9s  %s\n", "Chat", "Subject", "State", "Progress", "Taken")
		fmt.Println(strings.Repeat("─", 100))
		for _, tp := range threads {
			subject, state, progress := "-", "-", "-"
			if c := tp.Curriculum; c != nil {
				subject = truncate(c.Subject, 24)
				state = c.State().String()
				progress = fmt.Sprintf("%d/%d", c.Count(), c.TotalSubtopics())
			}
			fmt.Printf("%-32s  %-24s  %-12s  %9s  %d\n",
				truncate(tp.Thread.Title, 32), subject, state, progress, len(tp.Taken))
		}
		return nil
	},
}
