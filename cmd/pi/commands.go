package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/vanderheijden86/prodintel/pkg/api"
	"github.com/vanderheijden86/prodintel/pkg/config"
	"github.com/vanderheijden86/prodintel/pkg/debug"
	"github.com/vanderheijden86/prodintel/pkg/export"
	"github.com/vanderheijden86/prodintel/pkg/model"
	"github.com/vanderheijden86/prodintel/pkg/prompt"
	"github.com/vanderheijden86/prodintel/pkg/robot"
	"github.com/vanderheijden86/prodintel/pkg/snapshot"
	"github.com/vanderheijden86/prodintel/pkg/ui"
)

// cli runs the non-interactive commands.
type cli struct {
	client *api.Client
	cfg    config.Config
	opts   options
	stdout io.Writer
	stderr io.Writer
}

func (c *cli) dispatch(ctx context.Context) int {
	o := c.opts
	switch {
	case o.check:
		return c.check(ctx)
	case o.robotInsights:
		return c.robotInsights(ctx)
	case o.robotMetrics:
		return c.robotMetrics(ctx)
	case o.robotSnapshot, o.robotSummary:
		return c.robotSnapshot(ctx)
	case o.robotStats:
		return c.robotStats(ctx)
	case o.robotInsight != "":
		return c.robotInsight(ctx, model.ID(o.robotInsight))
	case o.robotSyncStatus:
		return c.robotSyncStatus(ctx)
	case o.metricView != "":
		return c.robotMetricView(ctx)
	case o.robotAskSet:
		return c.ask(ctx, o.robotAsk, true)
	case o.askSet:
		return c.ask(ctx, o.ask, false)
	case o.prompt:
		q, err := prompt.Question("")
		if err != nil {
			if errors.Is(err, prompt.ErrCancelled) {
				return 0
			}
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		return c.ask(ctx, q, false)
	case o.robotAnalyze != "":
		return c.analyze(ctx, o.robotAnalyze, true)
	case o.analyze != "":
		return c.analyze(ctx, o.analyze, false)
	default:
		return c.export(ctx)
	}
}

func (c *cli) write(v any) int {
	if err := robot.Write(c.stdout, v); err != nil {
		fmt.Fprintf(c.stderr, "Error writing output: %v\n", err)
		return 1
	}
	return 0
}

// failed logs err on the diagnostic channel and returns exit status 1.
func (c *cli) failed(op string, err error) int {
	debug.Errorf("%s: %v", op, err)
	return 1
}

func (c *cli) check(ctx context.Context) int {
	h, err := c.client.Health(ctx)
	if err != nil {
		debug.Errorf("health: %v", err)
		h = model.Health{Status: "unreachable"}
	}
	if code := c.write(robot.HealthOutput{
		Header:  robot.NewHeader(c.client.BaseURL()),
		Status:  h.Status,
		Healthy: h.Healthy(),
	}); code != 0 {
		return code
	}
	if !h.Healthy() {
		return 1
	}
	return 0
}

func (c *cli) robotInsights(ctx context.Context) int {
	items, err := c.client.ListInsights(ctx, api.InsightQuery{
		Type:     c.opts.typ,
		Severity: c.opts.severity,
		Limit:    c.opts.limit,
	})
	out := robot.InsightsOutput{Header: robot.NewHeader(c.client.BaseURL()), Insights: []model.Insight{}}
	if err != nil {
		debug.Errorf("fetch insights: %v", err)
		out.Failed = true
	} else if items != nil {
		out.Insights = items
	}
	out.Count = len(out.Insights)
	if code := c.write(out); code != 0 || out.Failed {
		return 1
	}
	return 0
}

func (c *cli) robotMetrics(ctx context.Context) int {
	items, err := c.client.ListMetrics(ctx, api.MetricQuery{
		Type:  c.opts.typ,
		Limit: c.opts.limit,
	})
	out := robot.MetricsOutput{Header: robot.NewHeader(c.client.BaseURL()), Metrics: []model.Metric{}}
	if err != nil {
		debug.Errorf("fetch metrics: %v", err)
		out.Failed = true
	} else if items != nil {
		out.Metrics = items
	}
	out.Count = len(out.Metrics)
	if code := c.write(out); code != 0 || out.Failed {
		return 1
	}
	return 0
}

func (c *cli) robotMetricView(ctx context.Context) int {
	o := c.opts
	items, err := c.client.MetricView(ctx, api.MetricViewQuery{
		View:    o.metricView,
		Start:   o.start,
		End:     o.end,
		Cohort:  o.cohort,
		Feature: o.feature,
		Funnel:  o.funnel,
	})
	out := robot.MetricsOutput{Header: robot.NewHeader(c.client.BaseURL()), View: string(o.metricView), Metrics: []model.Metric{}}
	if err != nil {
		debug.Errorf("metric view %s: %v", o.metricView, err)
		out.Failed = true
	} else {
		out.Metrics = items
	}
	out.Count = len(out.Metrics)
	if code := c.write(out); code != 0 || out.Failed {
		return 1
	}
	return 0
}

func (c *cli) robotInsight(ctx context.Context, id model.ID) int {
	out := robot.InsightOutput{Header: robot.NewHeader(c.client.BaseURL()), ID: string(id)}
	in, err := c.client.Insight(ctx, id)
	if err != nil {
		debug.Errorf("fetch insight %s: %v", id, err)
		out.Failed = true
	} else {
		out.Insight = &in
	}
	if code := c.write(out); code != 0 || out.Failed {
		return 1
	}
	return 0
}

func (c *cli) robotSyncStatus(ctx context.Context) int {
	states, err := c.client.SyncStatus(ctx)
	out := robot.SyncStatusOutput{Header: robot.NewHeader(c.client.BaseURL()), SyncStates: []model.SyncState{}}
	if err != nil {
		debug.Errorf("sync status: %v", err)
		out.Failed = true
	} else if states != nil {
		out.SyncStates = states
	}
	out.Count = len(out.SyncStates)
	if code := c.write(out); code != 0 || out.Failed {
		return 1
	}
	return 0
}

func (c *cli) loadSnapshot(ctx context.Context) snapshot.Snapshot {
	snap := snapshot.Load(ctx, c.client)
	snap.BaseURL = c.client.BaseURL()
	return snap
}

func (c *cli) robotSnapshot(ctx context.Context) int {
	snap := c.loadSnapshot(ctx)
	header := robot.NewHeader(snap.BaseURL)

	var code int
	if c.opts.robotSummary {
		code = c.write(robot.SummaryOutput{Header: header, Summary: snapshot.Summarize(snap)})
	} else {
		code = c.write(robot.SnapshotOutput{Header: header, Snapshot: snap})
	}
	if code != 0 || !snap.OK() {
		return 1
	}
	return 0
}

func (c *cli) robotStats(ctx context.Context) int {
	stats, err := c.client.InsightStats(ctx)
	if err != nil {
		return c.failed("insight stats", err)
	}
	return c.write(robot.StatsOutput{Header: robot.NewHeader(c.client.BaseURL()), Stats: stats})
}

func (c *cli) ask(ctx context.Context, question string, asJSON bool) int {
	ans, err := c.client.Ask(ctx, question)
	if err != nil {
		return c.failed("ask", err)
	}
	if asJSON {
		return c.write(robot.AskOutput{
			Header:   robot.NewHeader(c.client.BaseURL()),
			Question: question,
			Answer:   ans.Answer,
		})
	}
	c.printMarkdown(ans.Answer)
	return 0
}

func (c *cli) analyze(ctx context.Context, name string, asJSON bool) int {
	a, err := c.client.AnalyzeMetric(ctx, name)
	if err != nil {
		return c.failed("analyze "+name, err)
	}
	if asJSON {
		return c.write(robot.AnalysisOutput{
			Header:   robot.NewHeader(c.client.BaseURL()),
			Metric:   a.Metric,
			Analysis: a.Analysis,
		})
	}
	c.printMarkdown(a.Analysis)
	return 0
}

// printMarkdown renders text for a terminal, or prints it raw when stdout
// is redirected.
func (c *cli) printMarkdown(text string) {
	f, ok := c.stdout.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(c.stdout, text)
		return
	}
	width := 80
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		width = w
	}
	fmt.Fprintln(c.stdout, ui.NewMarkdownRenderer(width-4).Render(text))
}

func (c *cli) export(ctx context.Context) int {
	snap := c.loadSnapshot(ctx)

	if path := c.opts.exportMD; path != "" {
		opts := export.MarkdownOptions{DateLayout: c.cfg.UI.DateLayout, Location: time.Local}
		if path == "-" {
			if err := export.WriteMarkdown(c.stdout, snap, opts); err != nil {
				fmt.Fprintf(c.stderr, "Error: %v\n", err)
				return 1
			}
		} else {
			if err := writeMarkdownFile(path, snap, opts); err != nil {
				fmt.Fprintf(c.stderr, "Error: %v\n", err)
				return 1
			}
			fmt.Fprintf(c.stderr, "Wrote %s\n", path)
		}
	}

	if path := c.opts.exportSQLite; path != "" {
		if err := export.ExportSQLite(path, snap); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(c.stderr, "Wrote %s\n", path)
	}

	if !snap.OK() {
		return 1
	}
	return 0
}

func writeMarkdownFile(path string, snap snapshot.Snapshot, opts export.MarkdownOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteMarkdown(f, snap, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
