package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/cmd/taskdeck/internal/format"
	"github.com/taskdeck/taskdeck/pkg/appctx"
	"github.com/taskdeck/taskdeck/pkg/queue"
)

// NewStatsCommand creates the stats subcommand that queries a running
// server for its per-queue counters.
func NewStatsCommand() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-queue job counters from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)

			base := serverURL
			if base == "" {
				manager, ok := appctx.Config(cmd.Context())
				if !ok {
					return fmt.Errorf("configuration not initialized")
				}
				cfg := manager.Get()
				base = fmt.Sprintf("http://%s:%d", cfg.Server.Addr, cfg.Server.Port)
			}

			stats, err := fetchStats(base)
			if err != nil {
				f.PrintTotalFailureSummary("stats", err, "") //nolint:errcheck
				return err
			}

			names := make([]string, 0, len(stats))
			for name := range stats {
				names = append(names, name)
			}
			sort.Strings(names)

			headers := []string{"Queue", "Workers", "Active", "Queued", "Total", "Completed", "Failed", "Cancelled"}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				s := stats[name]
				rows = append(rows, []string{
					s.QueueName,
					strconv.Itoa(s.MaxWorkers),
					strconv.Itoa(s.ActiveWorkers),
					strconv.Itoa(s.QueuedJobs),
					strconv.Itoa(s.TotalJobs),
					strconv.Itoa(s.Completed),
					strconv.Itoa(s.Failed),
					strconv.Itoa(s.Cancelled),
				})
			}

			return f.PrintTable(headers, rows)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Server base URL (default from config)")

	return cmd
}

func fetchStats(base string) (map[string]queue.Stats, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(base + "/api/v1/stats")
	if err != nil {
		return nil, fmt.Errorf("contact server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	var stats map[string]queue.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}
