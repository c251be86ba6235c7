package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ardietz/confsync/internal/cleanup"
)

var cleanupYes bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete non-document files from the source directory",
	Long: `List every file under the source directory that is not a .docx
document and delete it after confirmation. The sync never uploads such
files; this removes the clutter they leave behind.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stray, err := cleanup.ListStrayFiles(cfg.Source.Dir)
		if err != nil {
			return err
		}

		if len(stray) == 0 {
			fmt.Println("No stray files found. Nothing to delete.")
			return nil
		}

		fmt.Printf("Found %d stray files to delete:\n", len(stray))
		for _, path := range stray {
			fmt.Printf("  %s\n", path)
		}

		if !cleanupYes && !confirm("\nDelete these files? (yes/no): ") {
			fmt.Println("Operation cancelled.")
			return nil
		}

		result := cleanup.Delete(stray)
		fmt.Printf("\nDeletion complete. %d files deleted.\n", len(result.Deleted))

		if len(result.Failed) > 0 {
			fmt.Fprintf(os.Stderr, "Failed to delete %d files:\n", len(result.Failed))
			for path, err := range result.Failed {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
			}
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupYes, "yes", "y", false, "skip the confirmation prompt")
}

// confirm prompts on stdin and accepts "yes" or "y"
func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}
