package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/v4lfind/v4lfind/internal/discovery"
	"github.com/v4lfind/v4lfind/internal/logging"
	"github.com/v4lfind/v4lfind/pkg/linuxav/v4l2"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var root string
	var mediaRoot string
	var caps uint32
	var m2m bool
	var asJSON bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Find the first matching video device",
		Long: `Scans the device directory for video nodes, returns the first one whose ` +
			`capabilities match, and correlates its media controller node when one exists.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{
				Level:  logLevel,
				Format: "text",
			})
			logger := logging.GetLogger("probe")

			svc := discovery.NewService(nil,
				discovery.WithVideoRoot(root),
				discovery.WithMediaRoot(mediaRoot),
			)

			accept := v4l2.RequireCaps(caps)
			if m2m {
				accept = v4l2.RequireM2M()
			}

			result, err := svc.Discover(accept)
			if err != nil {
				logger.Error("Discovery failed", "error", err)
				os.Exit(1)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					logger.Error("Failed to encode result", "error", err)
					os.Exit(1)
				}
				return
			}

			fmt.Printf("%s\t%s\t%s\t%s\n",
				result.Video.Path, result.Video.Driver, result.Video.Card, result.Video.BusInfo)
			if result.Media != nil {
				fmt.Printf("%s\t%s\t%s\n",
					result.Media.Path, result.Media.Driver, result.Media.Model)
			}
		},
	}

	cmd.Flags().StringVar(&root, "root", v4l2.DefaultRoot, "Directory to scan for video nodes")
	cmd.Flags().StringVar(&mediaRoot, "media-root", v4l2.DefaultRoot, "Directory to scan for media nodes")
	cmd.Flags().Uint32Var(&caps, "caps", v4l2.CapVideoCapture, "Capability mask the device must report")
	cmd.Flags().BoolVar(&m2m, "m2m", false, "Match memory-to-memory codec devices instead of a capability mask")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	return cmd
}
