// qualify checks dog-trial qualification from the command line.
//
// Usage:
//
//	qualify check -f registration.yaml [--output yaml|json]
//	qualify rules <eventType> [--class AVO] [--date 2024-05-01]
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/koekalenteri/qualification/rules"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	timeZone string
}

var rootCmd = &cobra.Command{
	Use:   "qualify",
	Short: "Qualification checks for dog-trial registrations",
	Long:  "qualify decides whether a dog's results qualify it for a class\nof a dog trial and lists the requirements in force.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.timeZone, "tz", rules.DefaultTimeZone, "Time zone calendar dates are evaluated in")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.Version = version
}

// catalog builds the default catalog in the zone given with --tz
func catalog() (*rules.Catalog, error) {
	loc, err := time.LoadLocation(rootFlags.timeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone: %w", err)
	}
	return rules.NewDefaultCatalog(loc)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
