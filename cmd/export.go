package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export learning progress as XLSX or a curriculum as PDF",
	Long: "export --format xlsx writes a workbook with a summary sheet and one sheet per chat.\n" +
		"export --format pdf writes the curriculum outline of one chat (the current one by default).",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		chatID, _ := cmd.Flags().GetString("chat")

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

		var write func(w io.Writer) error
		switch format {
		case "xlsx":
			threads, err := report.Collect(ctx, chats)
			if err != nil {
				return err
			}
			write = func(w io.Writer) error { return report.WriteProgressXLSX(w, threads) }
		case "pdf":
			if chatID == "" {
				chatID = chats.Current()
			}
			if _, ok := chats.Thread(chatID); !ok {
				return fmt.Errorf("unknown chat %q", chatID)
			}
			c, err := chats.Curriculum(ctx, chatID)
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("chat %q has no curriculum yet", chatID)
			}
			write = func(w io.Writer) error { return report.WriteCurriculumPDF(w, c) }
		default:
			return fmt.Errorf("unknown format %q (want xlsx or pdf)", format)
		}

		if out == "" {
			out = "tutorchat." + format
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := write(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Println("Wrote", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "xlsx", "Output format: xlsx or pdf")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default tutorchat.<format>)")
	exportCmd.Flags().String("chat", "", "Chat ID for the pdf format (default: current chat)")
}
