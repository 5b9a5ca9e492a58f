package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/history"
	"github.com/abdul-hamid-achik/easyhttp/packages/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	historyDBFlag    string
	historyLimitFlag int
	historyJSONFlag  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [db]",
	Short: "Inspect exchanges stored with --history",
	Long: `List, show, replay and query the exchanges stored by
"easyhttp get|post|put|delete --history <db>".

Examples:
  easyhttp history history.db
  easyhttp history show 3f2a --db history.db
  easyhttp history replay 3f2a --db history.db --var AUTHORIZATION="Bearer abc"
  easyhttp history query "SELECT method, count(*) AS n FROM exchanges GROUP BY method" --db history.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			historyDBFlag = args[0]
		}
		return historyListCommand(cmd, nil)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent exchanges",
	Args:  cobra.NoArgs,
	RunE:  historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one exchange; an id prefix is enough",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

var historyReplayCmd = &cobra.Command{
	Use:   "replay <id>",
	Short: "Send a stored request again",
	Long: `Send a stored request again. Redacted headers were stored as
placeholders such as {{AUTHORIZATION}}; supply them with --var or
--env-file, otherwise they are left out.`,
	Args: cobra.ExactArgs(1),
	RunE: historyReplayCommand,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored exchange",
	Args:  cobra.NoArgs,
	RunE:  historyClearCommand,
}

var historyQueryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a SQL query against the exchanges table",
	Args:  cobra.ExactArgs(1),
	RunE:  historyQueryCommand,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyDBFlag, "db", getEnvString("EASYHTTP_HISTORY", ""), "History database (env: EASYHTTP_HISTORY)")
	historyCmd.PersistentFlags().BoolVar(&historyJSONFlag, "json", false, "Output as JSON")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Number of entries to list, 0 for all")
	historyListCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Number of entries to list, 0 for all")
	historyReplayCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("EASYHTTP_ENV_FILE", ""), "Path to .env file for variable interpolation (env: EASYHTTP_ENV_FILE)")
	historyReplayCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Variable name=value for placeholders (repeatable)")
	historyReplayCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Print the body only")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyReplayCmd, historyClearCmd, historyQueryCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	if historyDBFlag == "" {
		return nil, fmt.Errorf("%w: no history database, pass --db or set EASYHTTP_HISTORY", errUsage)
	}
	store, err := history.Open(historyDBFlag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	return store, nil
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}
	if historyJSONFlag {
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history")
		return nil
	}

	if noColorFlag {
		color.NoColor = true
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, e := range entries {
		status := statusLabel(e)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID[:8], e.CreatedAt.Format(time.DateTime), e.Method, status, e.Duration, e.URL)
	}
	return tw.Flush()
}

func statusLabel(e history.Entry) string {
	switch {
	case e.Error != "":
		return color.RedString("ERR")
	case e.Status >= 400:
		return color.RedString("%d", e.Status)
	case e.Status >= 300:
		return color.YellowString("%d", e.Status)
	default:
		return color.GreenString("%d", e.Status)
	}
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if historyJSONFlag {
		return writeJSON(cmd.OutOrStdout(), e)
	}

	rec := e.Recording
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "id:       %s\n", e.ID)
	fmt.Fprintf(w, "time:     %s\n", e.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "request:  %s %s\n", rec.Method, rec.URL)
	writeHeaders(w, rec.RequestHeader)
	if rec.RequestBody != "" {
		fmt.Fprintf(w, "\n%s\n", rec.RequestBody)
	} else if rec.Streamed {
		fmt.Fprintln(w, "\n(streamed body, not recorded)")
	}
	if rec.Error != "" {
		fmt.Fprintf(w, "\nerror:    %s\n", rec.Error)
		return nil
	}
	fmt.Fprintf(w, "\nresponse: %d (%s)\n", rec.Status, rec.Duration)
	writeHeaders(w, rec.ResponseHeader)
	if rec.ResponseBody != "" {
		body := rec.ResponseBody
		if rec.BodyEncoding != "" {
			body = fmt.Sprintf("(%d bytes, %s encoded)", len(body), rec.BodyEncoding)
		}
		fmt.Fprintf(w, "\n%s\n", body)
	}
	if rec.Truncated {
		fmt.Fprintln(w, "(truncated)")
	}
	return nil
}

func writeHeaders(w io.Writer, h map[string]string) {
	hdr := make(http.Header, len(h))
	for k, v := range h {
		hdr.Set(k, v)
	}
	_ = hdr.WriteSubset(w, nil)
}

func historyReplayCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if e.Recording.Streamed {
		return fmt.Errorf("%w: %s has a streamed body that was not recorded", errUsage, e.ID)
	}

	s, err := newSession(sessionOptions{record: true})
	if err != nil {
		return err
	}
	defer s.Close()
	resolver, err := newResolver(s.logger)
	if err != nil {
		return err
	}

	rec := e.Recording
	c := s.client
	if err := c.NewRequest(rec.URL); err != nil {
		return err
	}
	for name, value := range rec.RequestHeader {
		if skipOnReplay(name) {
			continue
		}
		v := resolver.Resolve(value)
		if missing := resolver.Unresolved(v); len(missing) > 0 {
			s.logger.Info("header left out of replay", zap.String("header", name), zap.Strings("missing", missing))
			continue
		}
		c.Header(name, v)
	}
	if rec.RequestBody != "" {
		c.Body(resolver.Resolve(rec.RequestBody))
	}

	start := time.Now()
	resp, err := c.ExecuteContext(cmd.Context(), rec.Method)
	if err != nil {
		return err
	}
	body, err := c.ReadString(resp)
	if err != nil {
		return err
	}

	res := &output.Result{
		Method:     rec.Method,
		URL:        rec.URL,
		Proto:      resp.Proto,
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Header:     resp.Header,
		Body:       []byte(body),
		Duration:   time.Since(start),
	}
	if replayed, ok := s.lastRecording(); ok {
		if id, err := store.Add(cmd.Context(), replayed); err == nil {
			res.HistoryID = id
		}
	}

	out := output.New(historyJSONFlag, cmd.OutOrStdout(), output.WithQuiet(quietFlag), output.WithNoColor(colorDisabled(s.cfg)))
	if err := out.Format(res); err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: replay returned %s", errFailed, resp.Status)
	}
	return nil
}

// skipOnReplay names headers the client computes itself.
func skipOnReplay(name string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "Content-Length", "Accept-Encoding", "Connection", "Host", "Cookie":
		return true
	}
	return false
}

func historyClearCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
	return nil
}

func historyQueryCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.Query(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if historyJSONFlag {
		return writeJSON(cmd.OutOrStdout(), res.Rows)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			cells[i] = fmt.Sprint(row[col])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
