package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/v4lfind/v4lfind/internal/api/models"
	"github.com/v4lfind/v4lfind/internal/discovery"
	"github.com/v4lfind/v4lfind/internal/logging"
	"github.com/v4lfind/v4lfind/pkg/linuxav/v4l2"
)

// CreateListCmd creates the list command.
func CreateListCmd() *cobra.Command {
	var root string
	var asJSON bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List video devices",
		Long:  `Lists every video node in the device directory that answers a capability query, in directory order.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{
				Level:  logLevel,
				Format: "text",
			})
			logger := logging.GetLogger("list")

			svc := discovery.NewService(nil, discovery.WithVideoRoot(root))

			infos, err := svc.List()
			if err != nil {
				logger.Error("Device scan failed", "error", err)
				os.Exit(1)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(infos); err != nil {
					logger.Error("Failed to encode result", "error", err)
					os.Exit(1)
				}
				return
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tDRIVER\tCARD\tCAPABILITIES")
			for _, info := range infos {
				summary := models.NewDeviceSummary(info)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					info.Path, info.Driver, info.Card,
					strings.Join(summary.CapabilityNames, ", "))
			}
			w.Flush()
		},
	}

	cmd.Flags().StringVar(&root, "root", v4l2.DefaultRoot, "Directory to scan for video nodes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	return cmd
}
