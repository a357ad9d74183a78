package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"catalogsearch/internal/app"
	"catalogsearch/internal/config"
	"catalogsearch/internal/platform/logger"
	"catalogsearch/internal/query"
	"catalogsearch/internal/search"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	config.LoadEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "catalogsearch",
		Short:         "Federated search over library catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "catalog config file (default $CATALOGSEARCH_CONFIG or "+config.DefaultPath+")")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log provider activity to stderr")

	root.AddCommand(newSearchCmd(opts), newQueryCmd(), newCatalogsCmd(opts))
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) logger(cfg *config.Config) (*zap.Logger, error) {
	if !o.verbose {
		return zap.NewNop(), nil
	}
	return logger.New(logger.Config{Environment: "development", Level: "debug", Service: cfg.AppName})
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		catalogs string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search the configured catalogs from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log, err := opts.logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results, err := a.Engine.Search(ctx, parseArgs(args), splitIDs(catalogs))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d results:\n", len(results))
			return writeJSON(out, search.ViewsOf(results))
		},
	}
	cmd.Flags().StringVarP(&catalogs, "databases", "d", "", "catalog IDs to search, separated by commas")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var syntax string
	cmd := &cobra.Command{
		Use:   "query <query>...",
		Short: "Show how a query is interpreted",
		Long:  "Intended for debugging, prints the parsed form of a query in the chosen syntax: string, rpn, text or format.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := parseArgs(args)
			out, ok := search.Render(q, syntax)
			if !ok {
				out = q.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&syntax, "syntax", "s", "", "output syntax (string, rpn, text, format)")
	return cmd
}

func newCatalogsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List the configured catalogs and external providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tURL\tLINK")
			for _, c := range cfg.Catalogs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Provider.Type, c.Provider.URL, c.ExternalLink)
			}
			for _, p := range cfg.ExternalProviders {
				fmt.Fprintf(tw, "-\t(external)\t%s\t%s\t\n", p.Type, p.URL)
			}
			return tw.Flush()
		},
	}
}

// parseArgs compiles the arguments as the token sequence the shell already
// split, so that quoted values keep their spaces. Arguments that do not form
// a query are searched as the joined text.
func parseArgs(args []string) *query.Group {
	q, err := query.CompileTokens(args)
	var perr *query.ParseError
	if errors.As(err, &perr) {
		return query.Parse(strings.Join(args, " "))
	}
	return q
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
