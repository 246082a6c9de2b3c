package txn

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/qserver-tools/qdiag/utils"
)

func (a *Analysis) PrintReport(outputFormat string) {
	switch outputFormat {
	case "cli":
		a.printSummary()
	case "cli-more":
		a.printDetailed()
		a.PrintRootCauses()
	default:
		fmt.Printf("Unknown output format '%s', using summary format\n\n", outputFormat)
		a.printSummary()
	}
}

func (a *Analysis) printSummary() {
	duration := a.EndTime.Sub(a.StartTime).Round(time.Millisecond)

	// Header
	fmt.Printf("🔍 Transaction Performance Analysis\n")
	fmt.Printf("Transactions: %d (%d finished)  |  Window: %v\n",
		a.TotalCount, a.FinishedCount, duration)
	fmt.Println(strings.Repeat("═", 65))

	// Workload Overview
	fmt.Println("\n📈 WORKLOAD SUMMARY")
	fmt.Println(strings.Repeat("─", 35))

	ratioIcon, ratioStatus := getWaitRatioStatusWithIcon(a.WaitProcessRatio)
	fmt.Printf("%s Wait/Processing Ratio: %.2f (%s)\n", ratioIcon, a.WaitProcessRatio, ratioStatus)
	fmt.Printf("   Active Threads: %d  |  Peak Concurrency: %d\n",
		a.ActiveThreads, a.MaxConcurrent)
	if a.CountWaitCorr != 0 {
		fmt.Printf("   Load/Wait Correlation: %.2f\n", a.CountWaitCorr)
	}
	fmt.Println()

	// Outliers
	fmt.Println("⏱️  OUTLIERS")
	fmt.Println(strings.Repeat("─", 35))
	fmt.Printf("🐌 Long-running: %d transactions above p%.0f\n",
		len(a.LongRunning), a.Options.Percentile)
	fmt.Printf("⏳ High-waiting: %d transactions\n", len(a.HighWaiting))
	fmt.Printf("💾 High-memory: %d transactions\n", len(a.HighMemory))

	// Hotspots
	if len(a.CPUIntensiveKinds) > 0 {
		fmt.Println("\n🔥 TOP CPU CONSUMERS")
		fmt.Println(strings.Repeat("─", 35))
		for i, kt := range a.CPUIntensiveKinds {
			if i >= 5 {
				break
			}
			fmt.Printf("   %d. %s (%.1fms total)\n", i+1, kt.Kind, kt.Total)
		}
	}

	if len(a.LeakSources) > 0 {
		fmt.Println("\n🧠 MEMORY LEAK CANDIDATES")
		fmt.Println(strings.Repeat("─", 35))
		for i, leak := range a.LeakSources {
			if i >= 3 {
				break
			}
			fmt.Printf("   %s: risk %.2f (%s)\n", leak.Action, leak.RiskScore, leak.RiskLevel())
		}
	}

	if len(a.RootCauses) > 0 {
		fmt.Println("\n🎯 ROOT CAUSES")
		fmt.Println(strings.Repeat("─", 35))
		for _, rc := range a.RootCauses {
			fmt.Printf("%s %s: %s\n", impactIcon(rc.ImpactLevel()), rc.Category, rc.Description)
		}
	}

	// Status
	fmt.Printf("\n🎯 Overall Assessment: %s\n", a.Status)
}

func (a *Analysis) printDetailed() {
	fmt.Println("═══════════════════════════════════════════════════════════════════")
	fmt.Println("🔍              COMPREHENSIVE TRANSACTION ANALYSIS                  ")
	fmt.Println("═══════════════════════════════════════════════════════════════════")
	fmt.Println()

	// Workload
	fmt.Println("📊 WORKLOAD METRICS")
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("Total Transactions:     %d\n", a.TotalCount)
	fmt.Printf("Finished Transactions:  %d\n", a.FinishedCount)
	if !a.StartTime.IsZero() {
		fmt.Printf("Analysis Window:        %s → %s\n",
			a.StartTime.Format(TimestampLayout), a.EndTime.Format(TimestampLayout))
	}
	fmt.Printf("Active Threads:         %d\n", a.ActiveThreads)
	fmt.Printf("Peak Concurrency:       %d\n", a.MaxConcurrent)
	fmt.Printf("Wait/Processing Ratio:  %.2f\n", a.WaitProcessRatio)
	fmt.Printf("Load/Wait Correlation:  %.2f", a.CountWaitCorr)
	if a.CountWaitCorr > correlationGate {
		fmt.Printf(" ⚠️  [Strong - thread pool pressure]")
	}
	fmt.Println()
	fmt.Println()

	// Resource utilization
	var grandTotal float64
	for _, ct := range a.ResourceUtilization {
		grandTotal += ct.Total
	}
	if grandTotal > 0 {
		fmt.Println("🔄 TIME BREAKDOWN BY PHASE")
		fmt.Println(strings.Repeat("─", 50))
		for _, ct := range a.ResourceUtilization {
			bar := utils.CreateProgressBar(ct.Total/grandTotal, 24, utils.InfoColor)
			fmt.Printf("%-12s %s %10.1fms  (%.1f%%)\n",
				ct.Component, bar, ct.Total, ct.Total/grandTotal*100)
		}
		fmt.Println()
	}

	if len(a.MinuteSeries) >= 2 {
		fmt.Println("📉 TRANSACTIONS PER MINUTE")
		fmt.Println(strings.Repeat("─", 50))
		fmt.Println(minuteVolumeChart(a.MinuteSeries))
		fmt.Println()
	}

	// Per-kind statistics
	if len(a.StatsByKind) > 0 {
		fmt.Println("📋 STATISTICS BY TRANSACTION KIND")
		fmt.Println(strings.Repeat("─", 50))

		kinds := make([]string, 0, len(a.StatsByKind))
		for kind := range a.StatsByKind {
			kinds = append(kinds, kind)
		}
		sort.Slice(kinds, func(i, j int) bool {
			return a.StatsByKind[kinds[i]].Length.Total > a.StatsByKind[kinds[j]].Length.Total
		})

		for _, kind := range kinds {
			s := a.StatsByKind[kind]
			fmt.Printf("▸ %s (%d transactions)\n", kind, s.Count)
			fmt.Printf("    Length:   avg %.1fms  min %.1fms  max %.1fms  σ %.1fms\n",
				s.Length.Mean, s.Length.Min, s.Length.Max, s.Length.StdDev)
			fmt.Printf("    Waiting:  avg %.1fms (%.1f%% of runtime)\n",
				s.Waiting.Mean, s.WaitingTimePercentage)
			fmt.Printf("    Dominant: %s\n", s.MostCommonDominantComponent())
		}
		fmt.Println()
	}

	// Top offenders
	if len(a.TopByProcTime) > 0 {
		fmt.Println("🔥 TOP CPU-INTENSIVE TRANSACTIONS")
		fmt.Println(strings.Repeat("─", 50))
		for i, t := range a.TopByProcTime {
			fmt.Printf("%2d. [%s] %s  proc %.1fms of %.1fms\n",
				i+1, t.ID, t.Kind, t.ProcTime, t.Length)
		}
		fmt.Println()
	}

	if len(a.CausingWaits) > 0 {
		fmt.Println("⛔ TRANSACTIONS CAUSING WAITS")
		fmt.Println(strings.Repeat("─", 50))
		for _, w := range a.CausingWaits {
			fmt.Printf("▸ [%s] %s  %s\n", w.Txn.ID, w.Txn.Kind, w.Details())
		}
		fmt.Println()
	}

	// Memory
	if len(a.MemoryByKind) > 0 {
		fmt.Println("💾 MEMORY BY TRANSACTION KIND")
		fmt.Println(strings.Repeat("─", 50))

		kinds := make([]string, 0, len(a.MemoryByKind))
		for kind := range a.MemoryByKind {
			kinds = append(kinds, kind)
		}
		sort.Slice(kinds, func(i, j int) bool {
			return a.MemoryByKind[kinds[i]].TotalMemory.Total > a.MemoryByKind[kinds[j]].TotalMemory.Total
		})

		for _, kind := range kinds {
			m := a.MemoryByKind[kind]
			fmt.Printf("▸ %-24s total %-8s avg %s\n", kind,
				utils.MemorySize(m.TotalMemory.Total).String(),
				utils.MemorySize(m.TotalMemory.Mean).String())
		}
		fmt.Println()
	}

	if len(a.LeakSources) > 0 {
		fmt.Println("🧠 MEMORY LEAK CANDIDATES")
		fmt.Println(strings.Repeat("─", 50))
		for _, leak := range a.LeakSources {
			fmt.Printf("%s %s\n", riskIcon(leak.RiskLevel()), leak.Action)
			fmt.Printf("    Risk: %.2f (%s)  |  %d transactions\n",
				leak.RiskScore, leak.RiskLevel(), leak.TransactionCount)
			fmt.Printf("    Efficiency: %.1f B/ms  Retention: %.1f%%  Growth: %.1f B/txn\n",
				leak.MemoryEfficiency, leak.MemoryRetention*100, leak.MemoryGrowthRate)
		}
		fmt.Println()
	}
}

func (a *Analysis) PrintRootCauses() {
	if len(a.RootCauses) == 0 {
		fmt.Println("\n💡 ROOT CAUSE ANALYSIS")
		fmt.Println(strings.Repeat("─", 50))
		fmt.Println("✅ No significant performance issues detected.")
		fmt.Println("   Transaction processing appears healthy.")
		fmt.Println("   Continue monitoring for changes in workload behavior.")
		return
	}

	fmt.Println("\n🚀 ROOT CAUSE ANALYSIS")
	fmt.Println(strings.Repeat("─", 50))

	for _, rc := range a.RootCauses {
		fmt.Printf("\n%s %s [%s impact, score %.2f]\n",
			impactIcon(rc.ImpactLevel()), rc.Category, rc.ImpactLevel(), rc.ImpactScore)
		fmt.Printf("   Issue: %s\n", rc.Description)
		fmt.Printf("   Details: %s\n", rc.Details)
		fmt.Println("   Recommended actions:")
		for _, rec := range rc.Recommendations {
			fmt.Printf("   • %s\n", rec)
		}
	}
}

// minuteVolumeChart renders the per-minute transaction counts as a plain
// ASCII line chart.
func minuteVolumeChart(series []MinutePoint) string {
	values := make([]float64, len(series))
	timestamps := make([]time.Time, len(series))
	for i, p := range series {
		values[i] = float64(p.Count)
		timestamps[i] = p.Minute
	}

	plain := utils.SimpleRenderer{}
	config := utils.ChartConfig{
		Width:  64,
		Height: 10,
		Styles: utils.ChartStyles{
			Muted:    plain,
			Good:     plain,
			Info:     plain,
			Critical: plain,
			Warning:  plain,
		},
	}
	return utils.CreateSimplePlot(values, timestamps, "", config)
}

func getWaitRatioStatusWithIcon(ratio float64) (string, string) {
	if ratio < 0.2 {
		return "✅", "Healthy"
	} else if ratio < 0.5 {
		return "✅", "Acceptable"
	} else if ratio < 1 {
		return "⚠️", "Elevated - Monitor"
	}
	return "🔴", "Contention - Action needed"
}

func impactIcon(level string) string {
	switch level {
	case "Critical":
		return "🔴"
	case "High":
		return "🟠"
	case "Medium":
		return "🟡"
	default:
		return "💡"
	}
}

func riskIcon(level string) string {
	switch level {
	case "High":
		return "🔴"
	case "Medium":
		return "🟡"
	default:
		return "💡"
	}
}
