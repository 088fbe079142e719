package ctl

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/wildwatch/internal/adapters/http/api"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
)

const (
	defaultServerURL = "http://localhost:9080"
	defaultTimeout   = 90 * time.Second
)

type globalFlags struct {
	server  string
	timeout time.Duration
	asJSON  bool
	verbose bool
}

// RootCommand creates the wildwatchctl command tree writing to out.
func RootCommand(out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "wildwatchctl",
		Short:         "Operate a wildwatch server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&g.server, "server", defaultServerURL, "wildwatch server base URL")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	root.PersistentFlags().BoolVar(&g.asJSON, "json", false, "print raw JSON")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	root.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		level := "warn"
		if g.verbose {
			level = "debug"
		}
		return logger.SetLevelString(level)
	}

	root.AddCommand(
		scanCommand(g),
		historyCommand(g),
		statsCommand(g),
		clearCommand(g),
		watchCommand(g),
		jobsCommand(g),
		cancelCommand(g),
		replayCommand(g),
	)
	return root
}

func (g *globalFlags) client() *Client {
	return NewClient(g.server, g.timeout)
}

func (g *globalFlags) printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func scanCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <youtube-url>",
		Short: "Analyze one frame of a livestream for wildlife",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.client().Detect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if g.asJSON {
				res.FrameB64 = nil
				return g.printJSON(cmd, res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "id:        %s\n", res.ID)
			fmt.Fprintf(w, "triggered: %t\n", res.Triggered)
			fmt.Fprintf(w, "model:     %s\n", res.Model)
			fmt.Fprintf(w, "animals:   %s\n", formatAnimals(res.Animals))
			fmt.Fprintf(w, "\n%s\n", res.Explanation)
			return nil
		},
	}
}

func historyCommand(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored detections, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := g.client().Detections(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(recs) > limit {
				recs = recs[:limit]
			}
			if g.asJSON {
				for i := range recs {
					recs[i].Frame = ""
				}
				return g.printJSON(cmd, recs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tTRIGGERED\tANIMALS")
			for i := range recs {
				r := &recs[i]
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", r.ID, r.Timestamp.Local().Format(time.DateTime), r.Triggered, formatAnimals(r.Sightings))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n records")
	return cmd
}

func statsCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-species totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := g.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if g.asJSON {
				return g.printJSON(cmd, snap)
			}
			names := make([]string, 0, len(snap.AnimalCounts))
			for n := range snap.AnimalCounts {
				names = append(names, n)
			}
			sort.Slice(names, func(i, j int) bool {
				a, b := snap.AnimalCounts[names[i]], snap.AnimalCounts[names[j]]
				if a != b {
					return a > b
				}
				return names[i] < names[j]
			})
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "detections\t%d\n", snap.Total)
			for _, n := range names {
				fmt.Fprintf(tw, "%s\t%d\n", n, snap.AnimalCounts[n])
			}
			return tw.Flush()
		},
	}
}

func clearCommand(g *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the detection history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			if err := g.client().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")
	return cmd
}

func watchCommand(g *globalFlags) *cobra.Command {
	var req api.WatchRequest
	cmd := &cobra.Command{
		Use:   "watch <youtube-url>",
		Short: "Start continuous monitoring with webhook delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.YouTubeURL = args[0]
			resp, err := g.client().Watch(cmd.Context(), req)
			if err != nil {
				return err
			}
			if g.asJSON {
				return g.printJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s %s\n", resp.JobID, resp.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Condition, "condition", "", "condition prompt (default wildlife prompt)")
	cmd.Flags().StringVar(&req.WebhookURL, "webhook", "", "webhook URL (default server public URL)")
	cmd.Flags().IntVar(&req.IntervalSeconds, "interval", 0, "seconds between checks (default server setting)")
	cmd.Flags().StringVar(&req.Model, "model", "", "model identifier")
	return cmd
}

func jobsCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List monitoring jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := g.client().Jobs(cmd.Context())
			if err != nil {
				return err
			}
			if g.asJSON {
				return g.printJSON(cmd, list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tURL")
			for _, j := range list.Jobs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", j.ID, j.Status, j.YouTubeURL)
			}
			return tw.Flush()
		},
	}
}

func cancelCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a monitoring job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.client().Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s cancelled\n", args[0])
			return nil
		},
	}
}

func replayCommand(g *globalFlags) *cobra.Command {
	cfg := ReplayConfig{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Send synthetic webhook deliveries to exercise the ingest pipeline",
		Long: `Send synthetic webhook deliveries to a running server.

Each delivery mentions a random species from the vocabulary. A share of
deliveries is sent twice to exercise redelivery handling.

Examples:
  wildwatchctl replay --deliveries 500 --duplicates 0.1 --workers 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := Replay(cmd.Context(), g.client(), cfg, logger.Named("replay"))
			if err != nil {
				return err
			}
			if g.asJSON {
				return g.printJSON(cmd, stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"sent %d: accepted %d, duplicate %d, rejected %d, failed %d in %s\n",
				stats.Sent, stats.Accepted, stats.Duplicate, stats.Rejected, stats.Failed,
				stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Deliveries, "deliveries", 100, "distinct deliveries")
	cmd.Flags().Float64Var(&cfg.DuplicateRate, "duplicates", 0.1, "share of deliveries sent twice")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 4, "concurrent requests")
	cmd.Flags().StringVar(&cfg.JobID, "job", "replay", "job id carried by every delivery")
	cmd.Flags().StringVar(&cfg.SourceURL, "source", "", "livestream URL carried by every delivery")
	return cmd
}

func formatAnimals(animals []model.AnimalSighting) string {
	if len(animals) == 0 {
		return "-"
	}
	parts := make([]string, len(animals))
	for i, a := range animals {
		parts[i] = fmt.Sprintf("%s (%s)", a.Name, a.Confidence)
		if a.Count != nil {
			parts[i] = fmt.Sprintf("%d %s (%s)", *a.Count, a.Name, a.Confidence)
		}
	}
	return strings.Join(parts, ", ")
}
