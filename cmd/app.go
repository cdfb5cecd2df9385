package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/app"
	"github.com/abhisek/tutorchat/internal/screens/conversation"
)

// runApp opens the stores, builds the tutor, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	rt, err := openRuntime(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	provider, err := rt.provider(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Set TUTORCHAT_LLM_PROVIDER and an API key, or TUTORCHAT_LLM_PROVIDER=mock for a demo.")
		return err
	}

	t, err := rt.tutorFactory(provider)(ctx, rt.kv)
	if err != nil {
		return err
	}
	skip, _ := cmd.Flags().GetBool("skip-welcome")
	return app.Run(app.Options{
		Tutor:       t,
		Chat:        conversation.Options{TypingDelay: rt.cfg.Lessons.TypingDelay},
		SkipWelcome: skip,
	})
}
