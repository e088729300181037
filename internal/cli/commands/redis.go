package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/hyperspace/internal/cli/ui"
	"github.com/conduit-lang/hyperspace/schema"
)

func newPingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the connection to Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb := redis.NewClient(a.cfg.Redis.Options())
			defer rdb.Close()

			start := time.Now()
			if err := rdb.Ping(cmd.Context()).Err(); err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConnectionError(a.cfg.Redis.Addr, err, a.noColor))
				return reported(err)
			}
			elapsed := time.Since(start)

			a.logger.Debug("redis ping", zap.String("addr", a.cfg.Redis.Addr), zap.Duration("elapsed", elapsed))
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("PONG from %s in %s", a.cfg.Redis.Addr, elapsed.Round(time.Microsecond)), a.noColor)
			return nil
		},
	}
}

// scanReport is the outcome of classifying every key under a model's prefix
type scanReport struct {
	Pattern    string
	Total      int
	Counts     map[*schema.EntryMetadata]int
	Unmatched  []string
	Orphans    int
	Mismatches []string
}

func newScanCommand(a *app) *cobra.Command {
	var (
		limit      int
		checkTypes bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Count the keys of each entry in a live database",
		Long: `SCAN the keys under the model prefix, attribute each one to its entry and
list keys that no entry produces. With --types the Redis type of every key is
compared with the kind its entry declares.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(cmd)
			if err != nil {
				return err
			}

			rdb := redis.NewClient(a.cfg.Redis.Options())
			defer rdb.Close()

			report, err := scanKeyspace(cmd, rdb, m, a.cfg.Redis.ScanCount, limit, checkTypes)
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConnectionError(a.cfg.Redis.Addr, err, a.noColor))
				return reported(err)
			}
			a.logger.Debug("scan finished",
				zap.String("pattern", report.Pattern),
				zap.Int("keys", report.Total),
				zap.Int("unmatched", report.Orphans),
			)

			out := cmd.OutOrStdout()
			ui.Header(out, fmt.Sprintf("%d keys matching %s", report.Total, report.Pattern), a.noColor)
			table := ui.NewTable(out, a.noColor, "ENTRY", "KIND", "KEYS")
			m.Walk(func(e *schema.EntryMetadata) bool {
				if !e.IsEntrySet() {
					table.AddRow(relativePath(m, e), e.Kind().String(), strconv.Itoa(report.Counts[e]))
				}
				return true
			})
			table.Render()

			if report.Orphans > 0 {
				fmt.Fprintln(out)
				ui.WriteError(out, ui.ErrorOptions{
					Level:   ui.ErrorLevelWarning,
					Problem: fmt.Sprintf("%d key(s) belong to no entry", report.Orphans),
					Details: report.Unmatched,
					NoColor: a.noColor,
				})
			}
			if len(report.Mismatches) > 0 {
				fmt.Fprintln(out)
				ui.WriteError(out, ui.ErrorOptions{
					Level:   ui.ErrorLevelWarning,
					Problem: fmt.Sprintf("%d key(s) hold a different type than declared", len(report.Mismatches)),
					Details: report.Mismatches,
					NoColor: a.noColor,
				})
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of unmatched keys to list")
	cmd.Flags().BoolVar(&checkTypes, "types", false, "Compare each key's Redis type with its entry kind")
	return cmd
}

func scanKeyspace(cmd *cobra.Command, rdb redis.Cmdable, m *schema.ModelMetadata, count int64, limit int, checkTypes bool) (*scanReport, error) {
	ctx := cmd.Context()
	report := &scanReport{Pattern: "*", Counts: make(map[*schema.EntryMetadata]int)}
	if m.Prefix() != "" {
		report.Pattern = schema.EscapeGlob(m.Prefix()) + schema.Separator + "*"
	}

	iter := rdb.Scan(ctx, 0, report.Pattern, count).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		report.Total++

		e, _, ok := m.Match(key)
		if !ok || e.IsEntrySet() {
			report.Orphans++
			if len(report.Unmatched) < limit {
				report.Unmatched = append(report.Unmatched, key)
			}
			continue
		}
		report.Counts[e]++

		if !checkTypes {
			continue
		}
		typ, err := rdb.Type(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if kind, err := schema.ParseEntryKind(typ); err != nil || kind != e.Kind() {
			report.Mismatches = append(report.Mismatches,
				fmt.Sprintf("%s: stored as %s, declared %s", key, typ, e.Kind()))
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return report, nil
}
