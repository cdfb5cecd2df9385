package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tutorchat",
	Short: "AI tutor that teaches any subject one lesson at a time",
	Long: "tutorchat turns a subject you name into a curriculum of topics and subtopics, " +
		"teaches it lesson by lesson and checks progress with quizzes, exercises and projects.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TUTORCHAT_DB and the config file)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (overrides TUTORCHAT_CONFIG)")
	rootCmd.Flags().Bool("skip-welcome", false, "Start on the home screen")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
