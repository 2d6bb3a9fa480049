package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/transcriptd/transcriptd/internal"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that transcriptd can reach the transcript store",
	Long: `Check the health of transcriptd by verifying:
  • Configuration loads
  • The store backend opens
  • The store answers a listing call
  • Session count under the configured prefix

Useful for debugging store configuration, especially in CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("🔍 transcriptd Health Check"))
		fmt.Println()

		// Step 1: load configuration
		fmt.Println(infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := loadConfig()
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Failed to load configuration:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Println(successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			fmt.Printf("   Backend: %s\n", cfg.Store.Backend)
			fmt.Printf("   Prefix:  %s\n", cfg.Store.Prefix)
			if cfg.Store.Backend == "dir" {
				fmt.Printf("   Root:    %s\n", cfg.Store.Root)
			} else {
				fmt.Printf("   Database: %s\n", cfg.Store.Database)
			}
		}
		fmt.Println()

		// Step 2: open the store backend
		fmt.Println(infoStyle.Render("Step 2: Opening store backend..."))
		store, err := cfg.OpenStore()
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Failed to open store backend:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Println(successStyle.Render("✅ Store backend opened"))
		fmt.Println()

		// Step 3: listing call
		fmt.Println(infoStyle.Render("Step 3: Listing transcript keys..."))
		merger := internal.NewMerger(store, cfg.Store.Prefix)
		ids, err := merger.Sessions(context.Background())
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Store listing failed:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Println(successStyle.Render("✅ Store answered the listing call"))
		fmt.Println()

		// Summary
		fmt.Println(sectionStyle.Render("📊 Summary"))
		fmt.Println()
		if len(ids) > 0 {
			fmt.Println(successStyle.Render("✅ Health check passed!"))
			fmt.Println(successStyle.Render(fmt.Sprintf("   • Sessions: %d found", len(ids))))
			if healthcheckVerbose {
				for i, id := range ids {
					if i >= 5 {
						fmt.Printf("   ... and %d more\n", len(ids)-5)
						break
					}
					fmt.Printf("   [%d] %s\n", i+1, id)
				}
			}
			return nil
		}

		fmt.Println(warningStyle.Render("⚠️  Store reachable but no sessions found"))
		fmt.Println("   • The store backend is working")
		fmt.Printf("   • No main transcripts exist under prefix %q\n", cfg.Store.Prefix)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckVerbose, "detail", false, "Show detailed diagnostic information")
}
