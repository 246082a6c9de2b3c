package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/qserver-tools/qdiag/internal/html"
	"github.com/qserver-tools/qdiag/internal/txn"
	"github.com/qserver-tools/qdiag/internal/txn/tui"
	"github.com/qserver-tools/qdiag/utils"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	percentile   float64
	topLimit     int
	reportPath   string
)

var txnCmd = &cobra.Command{
	Use:   "txn",
	Short: "Analyze transaction logs",
}

var txnValidateCmd = &cobra.Command{
	Use:               "validate [transaction-log-files...]",
	Short:             "Validate transaction log files",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".csv"}, false),
	PreRunE:           validateLogArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := parseLogArgs(args)
		if err != nil {
			return err
		}

		finished := len(log.Finished())
		fmt.Printf("✅ Parsed %d transactions from %d file(s)\n", log.Len(), len(log.SourceFiles))
		fmt.Printf("   Finished: %d, other statuses: %d\n", finished, log.Len()-finished)

		if start, end := log.TimeRange(); !start.IsZero() {
			fmt.Printf("   Time window: %s → %s\n",
				start.Format("2006-01-02 15:04:05"), end.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var txnAnalyzeCmd = &cobra.Command{
	Use:               "analyze [transaction-log-files...]",
	Short:             "Analyze transaction log files",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".csv"}, false),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		validFormats := []string{"cli", "cli-more", "tui", "html"}
		if !slices.Contains(validFormats, outputFormat) {
			return fmt.Errorf("invalid output format: %s. Valid options: %v", outputFormat, validFormats)
		}

		if percentile <= 0 || percentile >= 100 {
			return fmt.Errorf("percentile must be between 0 and 100, got %g", percentile)
		}

		if topLimit <= 0 {
			return fmt.Errorf("top limit must be positive, got %d", topLimit)
		}

		return validateLogArgs(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := parseLogArgs(args)
		if err != nil {
			return err
		}

		analysis := log.Analyze(txn.Options{
			Percentile: percentile,
			TopLimit:   topLimit,
		})

		switch outputFormat {
		case "tui":
			return tui.Run(analysis)
		case "html":
			path, err := html.Generate(analysis, reportPath)
			if err != nil {
				return err
			}
			fmt.Printf("📄 Report written to %s\n", path)
			return nil
		default:
			analysis.PrintReport(outputFormat)
			return nil
		}
	},
}

func validateLogArgs(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() && !strings.HasSuffix(path, ".csv") {
			return fmt.Errorf("invalid transaction log file: %s (expected .csv)", path)
		}
	}
	return nil
}

// parseLogArgs merges the given files, or every .csv in a given
// directory, into a single deduplicated log.
func parseLogArgs(args []string) (*txn.TransactionLog, error) {
	parser := txn.NewParser()

	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			return parser.ParseDir(args[0])
		}
	}

	return parser.ParseFiles(args)
}

func init() {
	rootCmd.AddCommand(txnCmd)

	txnCmd.AddCommand(txnValidateCmd)
	txnCmd.AddCommand(txnAnalyzeCmd)

	txnAnalyzeCmd.Flags().StringVarP(&outputFormat, "output", "o", "cli", "Output format")
	txnAnalyzeCmd.Flags().Float64VarP(&percentile, "percentile", "p", 95, "Outlier percentile threshold")
	txnAnalyzeCmd.Flags().IntVarP(&topLimit, "top", "n", 10, "Number of entries in top-N lists")
	txnAnalyzeCmd.Flags().StringVar(&reportPath, "report", "", "Output path for the HTML report")

	// When user types: qdiag txn analyze file.csv -o <TAB>
	txnAnalyzeCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"cli", "cli-more", "tui", "html"}, cobra.ShellCompDirectiveNoFileComp
	})
}
