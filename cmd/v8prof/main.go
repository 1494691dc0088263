package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"

	"v8prof-mcp/internal/analyzer"
	"v8prof-mcp/internal/config"
	"v8prof-mcp/internal/export"
	"v8prof-mcp/internal/logfile"
	"v8prof-mcp/internal/logging"
	"v8prof-mcp/internal/session"
	"v8prof-mcp/internal/v8log"
)

var cfg struct {
	analyze struct {
		path string
		top  int
	}
	tree struct {
		path  string
		depth int
	}
	export struct {
		path string
		out  string
	}
	breakdown struct {
		path string
	}
}

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "Analyse v8 profiler logs.").UsageWriter(os.Stdout)
	app.HelpFlag.Short('h')
	flags := config.RegisterFlags(app)

	analyzeCmd := app.Command("analyze", "Print hotspots, VM state times and debug counters.")
	analyzeCmd.Arg("log", "v8 log file.").Required().ExistingFileVar(&cfg.analyze.path)
	analyzeCmd.Flag("top", "Number of hotspots to show.").Default("10").IntVar(&cfg.analyze.top)

	treeCmd := app.Command("tree", "Print the bottom-up call tree.")
	treeCmd.Arg("log", "v8 log file.").Required().ExistingFileVar(&cfg.tree.path)
	treeCmd.Flag("depth", "Maximum depth below the root (0 = unlimited).").Default("0").IntVar(&cfg.tree.depth)

	exportCmd := app.Command("export", "Write the bottom-up profile in pprof format.")
	exportCmd.Arg("log", "v8 log file.").Required().ExistingFileVar(&cfg.export.path)
	exportCmd.Arg("out", "Destination .pb.gz file.").Required().StringVar(&cfg.export.out)

	breakdownCmd := app.Command("breakdown", "Count raw log lines per command.")
	breakdownCmd.Arg("log", "v8 log file.").Required().ExistingFileVar(&cfg.breakdown.path)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	conf, err := flags.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(os.Stderr, conf.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx := context.Background()
	switch command {
	case analyzeCmd.FullCommand():
		err = analyze(ctx, os.Stdout, conf, logger)
	case treeCmd.FullCommand():
		err = printTree(ctx, os.Stdout, conf, logger)
	case exportCmd.FullCommand():
		err = exportPprof(ctx, conf, logger)
	case breakdownCmd.FullCommand():
		err = breakdown(os.Stdout)
	}
	if err != nil {
		level.Error(logger).Log("msg", "command failed", "cmd", command, "err", err)
		os.Exit(1)
	}
}

func analyze(ctx context.Context, out io.Writer, conf config.Config, logger log.Logger) error {
	s, err := session.Load(ctx, cfg.analyze.path, conf, logger)
	if err != nil {
		return err
	}

	stats := analyzer.ComputeStatistics(s.Profile)
	fmt.Fprintf(out, "Log: %s, %s lines\n", humanize.Bytes(uint64(s.Size)), humanize.Comma(int64(s.Lines)))
	fmt.Fprintf(out, "Ticks: %s  Symbols: %d  Functions: %d  Max depth: %d\n\n",
		humanize.Comma(int64(stats.TotalTicks)), s.Engine.Symbols().Len(), stats.UniqueFunctions, stats.MaxStackDepth)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Function", "Type", "Self", "Self %", "Total"})
	for i, hs := range analyzer.FindHotspots(s.Profile, cfg.analyze.top) {
		table.Append([]string{
			strconv.Itoa(i + 1),
			hs.Function,
			hs.SymbolType,
			fmt.Sprintf("%.0f", hs.SelfTime),
			fmt.Sprintf("%.2f", hs.Percentage),
			fmt.Sprintf("%.0f", hs.TotalTime),
		})
	}
	table.Render()
	fmt.Fprintln(out)

	table = tablewriter.NewWriter(out)
	table.SetHeader([]string{"VM State", "Ticks", "%"})
	for _, st := range analyzer.StateBreakdown(s.Profile) {
		table.Append([]string{st.State.String(), fmt.Sprintf("%.0f", st.Ticks), fmt.Sprintf("%.2f", st.Percentage)})
	}
	table.Render()
	fmt.Fprintln(out)

	printDebugStats(out, s.Engine.Stats().Snapshot())
	return nil
}

func printDebugStats(out io.Writer, snap v8log.StatsSnapshot) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Debug Stat", "Count"})
	table.Append([]string{"Add Collisions", strconv.FormatInt(snap.AddCollisions, 10)})
	table.Append([]string{"Lookup Misses", strconv.FormatInt(snap.LookupMisses, 10)})
	table.Append([]string{"Remove Misses", strconv.FormatInt(snap.RemoveMisses, 10)})
	table.Append([]string{"Move Misses", strconv.FormatInt(snap.MoveMisses, 10)})
	table.Render()
}

func printTree(ctx context.Context, out io.Writer, conf config.Config, logger log.Logger) error {
	s, err := session.Load(ctx, cfg.tree.path, conf, logger)
	if err != nil {
		return err
	}
	root := s.Profile.BottomUpProfile()
	if root == nil {
		fmt.Fprintln(out, "No ticks in log.")
		return nil
	}
	fmt.Fprint(out, analyzer.FormatTree(root, cfg.tree.depth))
	return nil
}

func exportPprof(ctx context.Context, conf config.Config, logger log.Logger) error {
	s, err := session.Load(ctx, cfg.export.path, conf, logger)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.export.out)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	if err := export.WritePprof(f, s.Profile); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing output")
	}
	level.Info(logger).Log("msg", "pprof profile written", "path", cfg.export.out)
	return nil
}

func breakdown(out io.Writer) error {
	payload, err := logfile.Read(cfg.breakdown.path)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Command", "Lines"})
	for _, c := range v8log.Breakdown(payload) {
		table.Append([]string{c.Command, strconv.Itoa(c.Count)})
	}
	table.Render()
	return nil
}
