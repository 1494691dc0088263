package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/alecthomas/kingpin.v2"

	"v8prof-mcp/internal/analyzer"
	"v8prof-mcp/internal/config"
	"v8prof-mcp/internal/export"
	"v8prof-mcp/internal/logging"
	"v8prof-mcp/internal/session"
)

// Profile cache, keyed by file path. Least recently used logs are dropped.
var cache *lru.Cache[string, *session.Session]

const notLoaded = "Profile not loaded. Use load_v8_log tool first"

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "MCP server for v8 profiler logs.")
	flags := config.RegisterFlags(app)
	cacheSize := app.Flag("cache.size", "Number of loaded logs kept in memory.").Default("8").Int()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	conf, err := flags.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// stdout carries the protocol, logs go to stderr.
	logger, err := logging.New(os.Stderr, conf.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cache, err = lru.New[string, *session.Session](*cacheSize); err != nil {
		level.Error(logger).Log("msg", "invalid cache size", "err", err)
		os.Exit(2)
	}

	// Create MCP server
	s := server.NewMCPServer(
		"v8-profiler",
		"1.0.0",
		server.WithLogging(),
	)
	registerTools(s, conf, logger)

	// Start the server
	if err := server.ServeStdio(s); err != nil {
		level.Error(logger).Log("msg", "server error", "err", err)
		os.Exit(1)
	}
}

func requireSession(request mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	s, ok := cache.Get(filePath)
	if !ok {
		return nil, mcp.NewToolResultError(notLoaded)
	}
	return s, nil
}

func registerTools(s *server.MCPServer, conf config.Config, logger log.Logger) {
	// Tool 1: Load Log
	loadLogTool := mcp.NewTool("load_v8_log",
		mcp.WithDescription("Load a v8 profiler log (as produced by --prof) and build its bottom-up profile"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Absolute path to the v8 log file"),
		),
	)

	s.AddTool(loadLogTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := request.RequireString("file_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		sess, err := session.Load(ctx, filePath, conf, logger)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load log: %v", err)), nil
		}
		cache.Add(filePath, sess)

		stats := analyzer.ComputeStatistics(sess.Profile)
		result := fmt.Sprintf(`V8 log loaded successfully!

File: %s
Lines: %d
Ticks: %.0f
Live symbols: %d
Functions in profile: %d
Has profile: %t

Use other tools to analyze this profile.
`,
			filePath,
			sess.Lines,
			stats.TotalTicks,
			sess.Engine.Symbols().Len(),
			stats.UniqueFunctions,
			sess.Record.HasJavaScriptProfile(),
		)

		return mcp.NewToolResultText(result), nil
	})

	// Tool 2: Find Hotspots
	findHotspotsTool := mcp.NewTool("find_hotspots",
		mcp.WithDescription("Find the functions with the most self time, i.e. where the VM was executing when sampled. This is the most important tool for identifying performance bottlenecks."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Number of top hotspots to return (default: 10)"),
		),
	)

	s.AddTool(findHotspotsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}
		topN := int(request.GetFloat("top_n", 10.0))

		hotspots := analyzer.FindHotspots(sess.Profile, topN)

		var sb strings.Builder
		sb.WriteString("🔥 TOP SELF-TIME HOTSPOTS\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")

		if len(hotspots) == 0 {
			sb.WriteString("No hotspots found.\n")
		} else {
			for i, hs := range hotspots {
				sb.WriteString(analyzer.FormatHotspot(hs, i+1))
				sb.WriteString("\n")
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 3: Find Cumulative Hotspots
	findCumulativeTool := mcp.NewTool("find_cumulative_hotspots",
		mcp.WithDescription("Find the functions that appear on the most sampled stacks, including time spent in their callees."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Number of top functions to return (default: 10)"),
		),
	)

	s.AddTool(findCumulativeTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}
		topN := int(request.GetFloat("top_n", 10.0))

		var sb strings.Builder
		sb.WriteString("📚 CUMULATIVE HOTSPOTS (Self + Callees)\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")

		hotspots := analyzer.FindCumulativeHotspots(sess.Profile, topN)
		if len(hotspots) == 0 {
			sb.WriteString("No functions found.\n")
		}
		for i, hs := range hotspots {
			sb.WriteString(fmt.Sprintf("#%d: %s\n", i+1, hs.Function))
			sb.WriteString(fmt.Sprintf("    On stack: %.0f ticks (%.2f%%)\n", hs.TotalTime, hs.Percentage))
			sb.WriteString(fmt.Sprintf("    Self: %.0f ticks\n\n", hs.SelfTime))
		}

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 4: VM State Times
	stateTimesTool := mcp.NewTool("get_state_times",
		mcp.WithDescription("Break down sampled ticks by VM state (JavaScript, garbage collection, compiler, other, external)."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
	)

	s.AddTool(stateTimesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}

		var sb strings.Builder
		sb.WriteString("⚙️  VM STATE BREAKDOWN\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")

		for i, st := range analyzer.StateBreakdown(sess.Profile) {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, st.State))
			sb.WriteString(fmt.Sprintf("   Ticks: %.0f (%.2f%%)\n", st.Ticks, st.Percentage))

			barLength := int(st.Percentage / 2)
			if barLength > 50 {
				barLength = 50
			}
			sb.WriteString("   ")
			sb.WriteString(strings.Repeat("█", barLength))
			sb.WriteString("\n\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 5: Detect Performance Issues
	detectIssuesTool := mcp.NewTool("detect_performance_issues",
		mcp.WithDescription("Automatically detect potential performance issues using heuristics. This is a great starting point for performance analysis."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
	)

	s.AddTool(detectIssuesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}

		issues := analyzer.DetectPerformanceIssues(sess.Profile)

		var sb strings.Builder
		sb.WriteString("⚠️  AUTOMATED PERFORMANCE ISSUE DETECTION\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")

		if len(issues) == 0 {
			sb.WriteString("✅ No significant performance issues detected!\n")
			return mcp.NewToolResultText(sb.String()), nil
		}

		counts := make(map[string]int)
		for i, issue := range issues {
			counts[issue.Severity]++
			sb.WriteString(fmt.Sprintf("%d. [%s] [%s] %s\n", i+1, issue.Severity, issue.Category, issue.Description))
			if issue.Function != "" {
				sb.WriteString(fmt.Sprintf("   Function: %s\n", issue.Function))
			}
			if issue.Impact > 0 {
				sb.WriteString(fmt.Sprintf("   Impact: %.2f%% of total ticks\n", issue.Impact))
			}
			sb.WriteString("\n")
		}

		sb.WriteString("\n📊 SUMMARY:\n")
		for _, severity := range []string{"Critical", "High", "Medium", "Low"} {
			sb.WriteString(fmt.Sprintf("   %s: %d\n", severity, counts[severity]))
		}

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 6: Get Statistics
	getStatisticsTool := mcp.NewTool("get_statistics",
		mcp.WithDescription("Get statistics about the profile: ticks, tree size, stack depths, unique functions."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
	)

	s.AddTool(getStatisticsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}

		stats := analyzer.ComputeStatistics(sess.Profile)

		var sb strings.Builder
		sb.WriteString("📊 PROFILE STATISTICS\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")

		sb.WriteString(fmt.Sprintf("Total Ticks: %.0f\n", stats.TotalTicks))
		sb.WriteString(fmt.Sprintf("Unresolved Ticks: %.0f\n", stats.UnknownTicks))
		sb.WriteString(fmt.Sprintf("Tree Nodes: %d\n", stats.TotalNodes))
		sb.WriteString(fmt.Sprintf("Distinct Stacks: %d\n\n", stats.UniquePaths))

		sb.WriteString("Stack Depth Statistics:\n")
		sb.WriteString(fmt.Sprintf("  Average: %.2f frames\n", stats.AverageStackDepth))
		sb.WriteString(fmt.Sprintf("  Maximum: %d frames\n\n", stats.MaxStackDepth))

		sb.WriteString(fmt.Sprintf("Unique Functions: %d\n", stats.UniqueFunctions))

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 7: View Bottom-up Tree
	viewTreeTool := mcp.NewTool("view_bottom_up_tree",
		mcp.WithDescription("View the bottom-up call tree: executing functions at the first level, their callers below."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum depth below the root (default: 3, 0 = unlimited)"),
		),
	)

	s.AddTool(viewTreeTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}

		root := sess.Profile.BottomUpProfile()
		if root == nil {
			return mcp.NewToolResultText("No ticks were recorded in this log.\n"), nil
		}
		depth := int(request.GetFloat("max_depth", 3.0))

		return mcp.NewToolResultText(analyzer.FormatTree(root, depth)), nil
	})

	// Tool 8: Debug Stats
	debugStatsTool := mcp.NewTool("get_debug_stats",
		mcp.WithDescription("Show how many log inconsistencies were tolerated (address collisions, lookup/remove/move misses)."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
	)

	s.AddTool(debugStatsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}

		snap := sess.Engine.Stats().Snapshot()
		var sb strings.Builder
		sb.WriteString("🔧 DEBUG STATS\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")
		sb.WriteString(fmt.Sprintf("Add Collisions: %d\n", snap.AddCollisions))
		sb.WriteString(fmt.Sprintf("Lookup Misses: %d\n", snap.LookupMisses))
		sb.WriteString(fmt.Sprintf("Remove Misses: %d\n", snap.RemoveMisses))
		sb.WriteString(fmt.Sprintf("Move Misses: %d\n", snap.MoveMisses))

		if queueStats, err := gatherQueueMetrics(); err == nil && len(queueStats) > 0 {
			sb.WriteString("\nWork queue (all sessions):\n")
			sb.WriteString(queueStats)
		}

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 9: Lookup Symbol
	lookupSymbolTool := mcp.NewTool("lookup_symbol",
		mcp.WithDescription("Look up the code object that lives at an address at the end of the log."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Hex address, with or without 0x prefix"),
		),
	)

	s.AddTool(lookupSymbolTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}
		addrStr, err := request.RequireString("address")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 64)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid address %q: %v", addrStr, err)), nil
		}

		sym, ok := sess.Engine.FindSymbol(addr)
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("No code object at [0x%X]\n", addr)), nil
		}
		typeName, _ := sess.Engine.Registry().SymbolTypeName(sym.SymbolType)
		return mcp.NewToolResultText(fmt.Sprintf("%s\n   Type: %s\n   Size: %d bytes\n   [0x%X]\n", sym.Name, typeName, sym.Size, sym.Address)), nil
	})

	// Tool 10: Export pprof
	exportTool := mcp.NewTool("export_pprof",
		mcp.WithDescription("Write the bottom-up profile as a gzipped pprof file for use with go tool pprof or other viewers."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the loaded v8 log file"),
		),
		mcp.WithString("output_path",
			mcp.Required(),
			mcp.Description("Destination .pb.gz file"),
		),
	)

	s.AddTool(exportTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}
		outPath, err := request.RequireString("output_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		f, err := os.Create(outPath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create output: %v", err)), nil
		}
		defer f.Close()
		if err := export.WritePprof(f, sess.Profile); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export: %v", err)), nil
		}

		level.Info(logger).Log("msg", "pprof profile written", "path", outPath)
		return mcp.NewToolResultText(fmt.Sprintf("pprof profile written to %s\n", outPath)), nil
	})
}

// gatherQueueMetrics renders the work queue metrics from the default registry.
func gatherQueueMetrics() (string, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "v8prof_workqueue_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			sb.WriteString(fmt.Sprintf("%s: %.0f\n", mf.GetName(), v))
		}
	}
	return sb.String(), nil
}
