package html

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/qserver-tools/qdiag/internal/txn"
	"github.com/qserver-tools/qdiag/utils"
)

// Embed template files at compile time
//
//go:embed templates/report.html
var reportTemplate string

// ReportData is the view model handed to the report template.
type ReportData struct {
	GeneratedAt time.Time
	Summary     SummaryInfo
	Kinds       []KindRow
	Utilization []UtilizationRow
	RootCauses  []CauseRow
	Leaks       []LeakRow
	TopCPU      []TxnRow
	Blockers    []BlockerRow
}

type SummaryInfo struct {
	TotalCount    int
	FinishedCount int
	Window        string
	MaxConcurrent int
	ActiveThreads int
	WaitRatio     float64
	Correlation   float64
	Status        string
	Percentile    float64
}

type KindRow struct {
	Kind        string
	Count       int
	MeanLength  float64
	MaxLength   float64
	WaitPercent float64
	Dominant    string
}

type UtilizationRow struct {
	Component string
	Total     float64
	Percent   float64
}

type CauseRow struct {
	Category        string
	Description     string
	Details         string
	ImpactScore     float64
	ImpactLevel     string
	Recommendations []string
}

type LeakRow struct {
	Action     string
	Count      int
	Efficiency float64
	Retention  float64
	Growth     string
	RiskScore  float64
	RiskLevel  string
}

type TxnRow struct {
	ID       string
	Kind     string
	Length   float64
	ProcTime float64
}

type BlockerRow struct {
	ID      string
	Kind    string
	Details string
}

// Generate renders the analysis into a self-contained HTML report and
// returns the absolute path it was written to.
func Generate(a *txn.Analysis, outputPath string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("analysis cannot be nil")
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse report template: %v", err)
	}

	absPath, err := GetOutputPath(outputPath)
	if err != nil {
		return "", err
	}

	file, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to create HTML file: %v", err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, buildReportData(a)); err != nil {
		return "", fmt.Errorf("failed to render report: %v", err)
	}

	return absPath, nil
}

func buildReportData(a *txn.Analysis) *ReportData {
	window := ""
	if !a.StartTime.IsZero() && !a.EndTime.IsZero() {
		window = fmt.Sprintf("%s → %s (%s)",
			a.StartTime.Format("2006-01-02 15:04:05"),
			a.EndTime.Format("2006-01-02 15:04:05"),
			utils.FormatDuration(a.EndTime.Sub(a.StartTime)))
	}

	return &ReportData{
		GeneratedAt: time.Now(),
		Summary: SummaryInfo{
			TotalCount:    a.TotalCount,
			FinishedCount: a.FinishedCount,
			Window:        window,
			MaxConcurrent: a.MaxConcurrent,
			ActiveThreads: a.ActiveThreads,
			WaitRatio:     a.WaitProcessRatio,
			Correlation:   a.CountWaitCorr,
			Status:        a.Status,
			Percentile:    a.Options.Percentile,
		},
		Kinds:       buildKindRows(a),
		Utilization: buildUtilizationRows(a),
		RootCauses:  buildCauseRows(a),
		Leaks:       buildLeakRows(a),
		TopCPU:      buildTopCPURows(a),
		Blockers:    buildBlockerRows(a),
	}
}

func buildKindRows(a *txn.Analysis) []KindRow {
	rows := make([]KindRow, 0, len(a.StatsByKind))
	for kind, s := range a.StatsByKind {
		rows = append(rows, KindRow{
			Kind:        kind,
			Count:       s.Count,
			MeanLength:  s.Length.Mean,
			MaxLength:   s.Length.Max,
			WaitPercent: s.WaitingTimePercentage,
			Dominant:    s.MostCommonDominantComponent(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MeanLength != rows[j].MeanLength {
			return rows[i].MeanLength > rows[j].MeanLength
		}
		return rows[i].Kind < rows[j].Kind
	})
	return rows
}

func buildUtilizationRows(a *txn.Analysis) []UtilizationRow {
	var grand float64
	for _, comp := range a.ResourceUtilization {
		grand += comp.Total
	}

	rows := make([]UtilizationRow, 0, len(a.ResourceUtilization))
	for _, comp := range a.ResourceUtilization {
		percent := 0.0
		if grand > 0 {
			percent = comp.Total / grand * 100
		}
		rows = append(rows, UtilizationRow{
			Component: comp.Component,
			Total:     comp.Total,
			Percent:   percent,
		})
	}
	return rows
}

func buildCauseRows(a *txn.Analysis) []CauseRow {
	rows := make([]CauseRow, 0, len(a.RootCauses))
	for _, rc := range a.RootCauses {
		rows = append(rows, CauseRow{
			Category:        rc.Category,
			Description:     rc.Description,
			Details:         rc.Details,
			ImpactScore:     rc.ImpactScore,
			ImpactLevel:     rc.ImpactLevel(),
			Recommendations: rc.Recommendations,
		})
	}
	return rows
}

func buildLeakRows(a *txn.Analysis) []LeakRow {
	rows := make([]LeakRow, 0, len(a.LeakSources))
	for _, leak := range a.LeakSources {
		rows = append(rows, LeakRow{
			Action:     leak.Action,
			Count:      leak.TransactionCount,
			Efficiency: leak.MemoryEfficiency,
			Retention:  leak.MemoryRetention * 100,
			Growth:     utils.MemorySize(leak.MemoryGrowthRate).String(),
			RiskScore:  leak.RiskScore,
			RiskLevel:  leak.RiskLevel(),
		})
	}
	return rows
}

func buildTopCPURows(a *txn.Analysis) []TxnRow {
	rows := make([]TxnRow, 0, len(a.TopByProcTime))
	for _, t := range a.TopByProcTime {
		rows = append(rows, TxnRow{
			ID:       t.ID,
			Kind:     t.Kind,
			Length:   t.Length,
			ProcTime: t.ProcTime,
		})
	}
	return rows
}

func buildBlockerRows(a *txn.Analysis) []BlockerRow {
	rows := make([]BlockerRow, 0, len(a.CausingWaits))
	for _, w := range a.CausingWaits {
		rows = append(rows, BlockerRow{
			ID:      w.Txn.ID,
			Kind:    w.Txn.Kind,
			Details: w.Details(),
		})
	}
	return rows
}

// GetOutputPath returns a safe output path, creating directories if needed
func GetOutputPath(path string) (string, error) {
	outputPath := path
	if outputPath == "" {
		outputPath = GetDefaultOutputPath()
	}

	// Ensure .html extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath += ".html"
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %v", outputPath, err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %v", dir, err)
	}

	return absPath, nil
}

// GetDefaultOutputPath returns a default HTML output path
func GetDefaultOutputPath() string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("txn-analysis-%s.html", timestamp)
}
