package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every chat, curriculum and assessment record",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Println("This deletes all chats and progress. Re-run with --yes to confirm.")
			return nil
		}

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		n, err := clearKV(context.Background(), rt.kv)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d records.\n", n)
		return nil
	},
}

// clearKV removes every key in kv.
func clearKV(ctx context.Context, kv store.KV) (int, error) {
	keys, err := kv.Keys(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}
	for _, k := range keys {
		if err := kv.Remove(ctx, k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
