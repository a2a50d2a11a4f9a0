package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vanderheijden86/prodintel/pkg/api"
)

type options struct {
	apiURL     string
	configPath string
	help       bool
	version    bool

	robotInsights bool
	robotMetrics  bool
	robotSnapshot bool
	robotSummary  bool
	robotStats    bool

	robotInsight    string
	robotSyncStatus bool
	robotMetricView string
	metricView      api.MetricView

	ask          string
	askSet       bool
	robotAsk     string
	robotAskSet  bool
	prompt       bool
	analyze      string
	robotAnalyze string
	check        bool

	exportMD     string
	exportSQLite string

	severity string
	typ      string
	limit    int

	start   string
	end     string
	cohort  string
	feature string
	funnel  string
}

// actions lists the non-interactive actions requested, by flag name. The
// two exports count as one action since they share a snapshot.
func (o options) actions() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(o.check, "--check")
	add(o.robotInsights, "--robot-insights")
	add(o.robotMetrics, "--robot-metrics")
	add(o.robotSnapshot, "--robot-snapshot")
	add(o.robotSummary, "--robot-summary")
	add(o.robotStats, "--robot-stats")
	add(o.robotInsight != "", "--robot-insight")
	add(o.robotSyncStatus, "--robot-sync-status")
	add(o.robotMetricView != "", "--robot-metric-view")
	add(o.robotAskSet, "--robot-ask")
	add(o.askSet, "--ask")
	add(o.prompt, "--prompt")
	add(o.robotAnalyze != "", "--robot-analyze")
	add(o.analyze != "", "--analyze")
	add(o.exportMD != "" || o.exportSQLite != "", "--export-md/--export-sqlite")
	return out
}

// isCommand reports whether a non-interactive action was requested.
func (o options) isCommand() bool {
	return len(o.actions()) > 0
}

func parseFlags(args []string, output io.Writer) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("pi", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&o.apiURL, "api-url", "", "Backend base URL (overrides PI_API_URL, NEXT_PUBLIC_API_URL and config)")
	fs.StringVar(&o.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/pi/config.yaml)")
	fs.BoolVar(&o.help, "help", false, "Show help")
	fs.BoolVar(&o.version, "version", false, "Show version")

	fs.BoolVar(&o.robotInsights, "robot-insights", false, "Print insights as JSON")
	fs.BoolVar(&o.robotMetrics, "robot-metrics", false, "Print metrics as JSON")
	fs.BoolVar(&o.robotSnapshot, "robot-snapshot", false, "Print insights and metrics as one JSON snapshot")
	fs.BoolVar(&o.robotSummary, "robot-summary", false, "Print insight counts and per-type metric statistics as JSON")
	fs.BoolVar(&o.robotStats, "robot-stats", false, "Print the backend's insight stats as JSON")
	fs.StringVar(&o.robotInsight, "robot-insight", "", "Print one insight by id as JSON")
	fs.BoolVar(&o.robotSyncStatus, "robot-sync-status", false, "Print the ingestion sync state of each analytics source as JSON")
	fs.StringVar(&o.robotMetricView, "robot-metric-view", "", "Print a metric view as JSON: dau, retention, feature-adoption or funnel")

	fs.StringVar(&o.ask, "ask", "", "Ask a question and print the answer")
	fs.StringVar(&o.robotAsk, "robot-ask", "", "Ask a question and print the answer as JSON")
	fs.BoolVar(&o.prompt, "prompt", false, "Type a question in a form, then ask it")
	fs.StringVar(&o.analyze, "analyze", "", "Print the backend's analysis of a metric")
	fs.StringVar(&o.robotAnalyze, "robot-analyze", "", "Print the backend's analysis of a metric as JSON")
	fs.BoolVar(&o.check, "check", false, "Check backend health (exit 1 when unhealthy)")

	fs.StringVar(&o.exportMD, "export-md", "", "Write a markdown report to a file ('-' for stdout)")
	fs.StringVar(&o.exportSQLite, "export-sqlite", "", "Write a SQLite snapshot to a file")

	fs.StringVar(&o.severity, "severity", "", "Filter --robot-insights by severity")
	fs.StringVar(&o.typ, "type", "", "Filter --robot-insights by insight type or --robot-metrics by metric type")
	fs.IntVar(&o.limit, "limit", 0, "Limit --robot-insights/--robot-metrics results (0 = server default)")
	fs.StringVar(&o.start, "start", "", "dau view: first date (YYYY-MM-DD)")
	fs.StringVar(&o.end, "end", "", "dau view: last date (YYYY-MM-DD)")
	fs.StringVar(&o.cohort, "cohort", "", "retention view: cohort date (YYYY-MM-DD)")
	fs.StringVar(&o.feature, "feature", "", "feature-adoption view: feature name")
	fs.StringVar(&o.funnel, "funnel", "", "funnel view: funnel name (required for that view)")

	if err := fs.Parse(args); err != nil {
		return o, fs, err
	}
	fail := func(err error) (options, *flag.FlagSet, error) {
		fmt.Fprintf(output, "Error: %v\n", err)
		return o, fs, err
	}
	if fs.NArg() > 0 {
		return fail(fmt.Errorf("unexpected argument %q", fs.Arg(0)))
	}
	if o.limit < 0 {
		return fail(fmt.Errorf("--limit must not be negative"))
	}
	if o.robotMetricView != "" {
		v, err := api.ParseMetricView(o.robotMetricView)
		if err != nil {
			return fail(err)
		}
		if v == api.ViewFunnel && o.funnel == "" {
			return fail(fmt.Errorf("--robot-metric-view funnel needs --funnel"))
		}
		o.metricView = v
	}

	// An empty question is still a question.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ask":
			o.askSet = true
		case "robot-ask":
			o.robotAskSet = true
		}
	})

	if acts := o.actions(); len(acts) > 1 {
		return fail(fmt.Errorf("one action per run, got %s", strings.Join(acts, " and ")))
	}
	return o, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: pi [options]")
	fmt.Fprintln(w, "\nA terminal dashboard for the product intelligence backend.")
	fmt.Fprintln(w, "Without options pi opens the dashboard.")
	fmt.Fprintln(w)
	fs.SetOutput(w)
	fs.PrintDefaults()
}
