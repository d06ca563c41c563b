// Command inboxctl prints the triage views of an inbox fixture without
// starting the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lumi-hq/lumi-inbox/backend/internal/analysis/triage"
	"github.com/lumi-hq/lumi-inbox/backend/internal/display"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
	inboxService "github.com/lumi-hq/lumi-inbox/backend/internal/service/inbox"
)

var (
	logger *zap.Logger

	cfgFile  string
	seedFile string
	locale   string
	timezone string
	asJSON   bool
	verbose  bool

	listTab    string
	listQuery  string
	listFilter string
)

var rootCmd = &cobra.Command{
	Use:   "inboxctl",
	Short: "Inspect the Lumi inbox triage views from the terminal",
	Long: `inboxctl loads the same seed data as the API (built-in mock records or
an INBOX_SEED_FILE fixture) and prints the triage views.

Example:
  inboxctl list --tab waiting --filter risk
  inboxctl show c2`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger == nil {
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger = zap.NewNop()
			}
			if err != nil {
				return err
			}
		}

		v, err := newSettings(cmd.Flags())
		if err != nil {
			return err
		}
		return resolveSettings(v)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the conversations visible in a tab",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [conversation-id]",
	Short: "Print a conversation transcript grouped by day",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Print the per-tab counters",
	Args:  cobra.NoArgs,
	RunE:  runCounts,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file with seed-file, locale and timezone keys")
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed", "", "YAML seed fixture (default: built-in records, env INBOX_SEED_FILE)")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "pt-BR", "Display language (env INBOX_LOCALE)")
	rootCmd.PersistentFlags().StringVar(&timezone, "tz", "America/Sao_Paulo", "Timezone for day grouping (env INBOX_TIMEZONE)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	listCmd.Flags().StringVar(&listTab, "tab", "", "Tab to show: waiting, in_progress or done (default waiting)")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Case-insensitive search over name, phone, last text and tags")
	listCmd.Flags().StringVar(&listFilter, "filter", "", "Extra filter; only \"risk\" is supported")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(countsCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newSettings layers flags over INBOX_* environment variables over the
// optional config file.
func newSettings(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{"seed-file": "seed", "locale": "locale", "timezone": "tz"} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return v, nil
}

func resolveSettings(v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	seedFile = v.GetString("seed-file")
	locale = v.GetString("locale")
	timezone = v.GetString("timezone")
	logger.Debug("settings resolved",
		zap.String("seed", seedFile),
		zap.String("locale", locale),
		zap.String("timezone", timezone))
	return nil
}

func loadService(now time.Time) (*inboxService.Service, error) {
	convs, msgs := inbox.Seed(now)
	if seedFile != "" {
		var err error
		convs, msgs, err = inbox.LoadSeedFile(seedFile, now)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded seed file", zap.String("path", seedFile), zap.Int("conversations", len(convs)))
	}

	store, err := inbox.NewMemoryStore(convs, msgs)
	if err != nil {
		return nil, err
	}
	clock := inboxService.ClockFunc(func() time.Time { return now })
	return inboxService.NewService(store, inboxService.WithClock(clock)), nil
}

func runList(cmd *cobra.Command, args []string) error {
	now := time.Now()
	svc, err := loadService(now)
	if err != nil {
		return err
	}

	view, err := triage.ParseView(listTab, listQuery, listFilter)
	if err != nil {
		return err
	}
	visible, err := svc.Visible(commandContext(cmd), view)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, visible)
	}

	l := display.LookupLocale(locale)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tPRIORITY\tRISK\tUNREAD\tLAST\tWHEN\n")
	for _, c := range visible {
		risk := fmt.Sprintf("%d", c.RiskScore)
		if c.AtRisk() {
			risk += "!"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.ID, c.Name, l.PriorityLabel(c.Priority), risk, c.UnreadCount,
			truncate(c.LastText, 40), display.RelativeTime(c.LastAt, now, l))
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	now := time.Now()
	svc, err := loadService(now)
	if err != nil {
		return err
	}
	tz, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	ctx := commandContext(cmd)
	conv, err := svc.GetConversation(ctx, args[0])
	if err != nil {
		return err
	}
	msgs, err := svc.ListMessages(ctx, args[0])
	if err != nil {
		return err
	}

	l := display.LookupLocale(locale)
	out := cmd.OutOrStdout()
	if asJSON {
		var groups []display.DayGroup
		for g := range display.GroupByDay(msgs, now, tz, l) {
			groups = append(groups, g)
		}
		return writeJSON(out, map[string]any{"conversation": conv, "groups": groups})
	}

	fmt.Fprintf(out, "%s (%s) · %s · %s\n", conv.Name, conv.Phone, l.StateLabel(conv.State), l.PriorityLabel(conv.Priority))
	for g := range display.GroupByDay(msgs, now, tz, l) {
		fmt.Fprintf(out, "\n[%s]\n", g.Label)
		for _, m := range g.Messages {
			fmt.Fprintf(out, "%s  %-6s  %s\n", display.FormatTime(m.At, tz), m.Role, m.Text)
		}
	}
	return nil
}

func runCounts(cmd *cobra.Command, args []string) error {
	svc, err := loadService(time.Now())
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	counts, err := svc.Counts(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, counts)
	}

	l := display.LookupLocale(locale)
	fmt.Fprintf(out, "%s: %d\n", l.StateLabel(inbox.StateWaiting), counts.Waiting)
	fmt.Fprintf(out, "%s: %d\n", l.StateLabel(inbox.StateInProgress), counts.InProgress)
	fmt.Fprintf(out, "%s: %d\n", l.StateLabel(inbox.StateDone), counts.Done)
	fmt.Fprintf(out, "risk >= %d: %d\n", inbox.RiskThreshold, counts.RiskHigh)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
