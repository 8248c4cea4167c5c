// predictor-cli runs the analysis pipeline over local CSV exports and
// inspects the prediction history without a running server.
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/engine"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/ingest"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/insights"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/narrative"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/services"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/store"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/utils"
)

var (
	criticalColor = color.New(color.FgRed, color.Bold)
	highColor     = color.New(color.FgYellow, color.Bold)
	moderateColor = color.New(color.FgGreen)
	lowColor      = color.New(color.FgHiBlack)
)

var (
	flagCSV           string
	flagMetric        string
	flagHost          string
	flagThreshold     float64
	flagContamination float64
	flagStorePath     string
	flagAIHost        string
	flagAIModel       string
	flagAITemp        float64
	flagLimit         int
	flagLogLevel      string
)

func main() {
	root := &cobra.Command{
		Use:           "predictor-cli",
		Short:         "Run trend and anomaly analysis over Zabbix metric exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log verbosity (debug, info, warn, error)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a CSV export of timestamp,value rows",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&flagCSV, "csv", "", "path to the CSV export (required)")
	analyzeCmd.Flags().StringVar(&flagMetric, "metric", "CPU Usage", "display name of the metric")
	analyzeCmd.Flags().StringVar(&flagHost, "host", "", "host label stored with the result")
	analyzeCmd.Flags().Float64Var(&flagThreshold, "threshold", 0, "breach threshold (0 uses the default)")
	analyzeCmd.Flags().Float64Var(&flagContamination, "contamination", 0, "outlier prior (0 uses the default)")
	analyzeCmd.Flags().StringVar(&flagStorePath, "store", "", "sqlite path for persisting results (optional)")
	analyzeCmd.Flags().StringVar(&flagAIHost, "ai-host", "", "Ollama endpoint for narratives (optional)")
	analyzeCmd.Flags().StringVar(&flagAIModel, "ai-model", "llama3.1:8b", "model used for narratives")
	analyzeCmd.Flags().Float64Var(&flagAITemp, "ai-temperature", 0.2, "narrative sampling temperature")
	_ = analyzeCmd.MarkFlagRequired("csv")

	predictionsCmd := &cobra.Command{
		Use:   "predictions",
		Short: "List stored prediction records",
		RunE:  runPredictions,
	}
	predictionsCmd.Flags().StringVar(&flagStorePath, "store", "predictions.db", "sqlite path of the prediction store")
	predictionsCmd.Flags().StringVar(&flagHost, "host", "", "filter by host")
	predictionsCmd.Flags().IntVar(&flagLimit, "limit", 50, "maximum records to show")

	root.AddCommand(analyzeCmd, predictionsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	logger := utils.NewLogger(flagLogLevel, false)

	series, err := ingest.LoadCSVFile(flagCSV, flagMetric)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}

	var narrator engine.Narrator
	if flagAIHost != "" {
		narrator = narrative.NewClient(flagAIHost, flagAIModel, flagAITemp, 2*time.Minute, logger)
	}

	var records engine.RecordStore
	var closer *store.Store
	if flagStorePath != "" {
		st, err := store.Open(flagStorePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		records = st
		closer = st
	}
	if closer != nil {
		defer closer.Close()
	}

	pipeline := engine.NewPipeline(logger, narrator, records, nil)
	service := services.NewPredictorService(logger, nil, pipeline, nil)

	result, err := service.AnalyzeSeries(cmd.Context(), models.AnalysisRequest{
		Host:          flagHost,
		MetricName:    flagMetric,
		Threshold:     flagThreshold,
		Contamination: flagContamination,
	}, series)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func runPredictions(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(flagStorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	records, err := st.ListRecent(cmd.Context(), models.ListPredictionsRequest{
		Host:  flagHost,
		Limit: flagLimit,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No stored predictions.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"ID", "Created", "Host", "Metric", "Kind", "Severity", "Confidence", "Summary"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, rec := range records {
		data = append(data, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.Host,
			rec.MetricName,
			string(rec.Kind),
			severityLabel(rec.Severity),
			fmt.Sprintf("%.2f", rec.Confidence),
			truncate(rec.Summary, 60),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func printResult(result models.AnalysisResult) {
	fmt.Printf("Run %s (%s)\n\n", result.RunID, result.MetricName)

	printPayloadTable("Trend forecast", insights.TrendPayload(result.Trend))
	fmt.Println()
	printPayloadTable("Anomaly detection", insights.AnomalyPayload(result.Anomaly))

	if result.TrendNarrative != nil {
		fmt.Println()
		printNarrative("Trend narrative", result.TrendNarrative)
	}
	if result.AnomalyNarrative != nil {
		fmt.Println()
		printNarrative("Anomaly narrative", result.AnomalyNarrative)
	}
	if result.Degraded {
		fmt.Println()
		highColor.Println("Narrative generation failed; analytic payloads above are complete.")
	}
}

func printPayloadTable(title string, payload map[string]any) {
	fmt.Println(title)
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Field", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, key := range sortedKeys(payload) {
		data = append(data, []string{key, formatValue(payload[key])})
	}
	if err := table.Bulk(data); err != nil {
		return
	}
	_ = table.Render()
}

func printNarrative(title string, narr *models.Narrative) {
	fmt.Println(title)
	fmt.Printf("  Severity:      %s\n", severityLabel(narr.Severity))
	fmt.Printf("  Summary:       %s\n", narr.Summary)
	fmt.Printf("  Action:        %s\n", narr.Action)
	fmt.Printf("  Justification: %s\n", narr.Justification)
	fmt.Printf("  Confidence:    %.2f\n", float64(narr.Confidence))
}

func severityLabel(severity string) string {
	switch models.Severity(severity) {
	case models.SeverityCritical:
		return criticalColor.Sprint(severity)
	case models.SeverityHigh:
		return highColor.Sprint(severity)
	case models.SeverityModerate:
		return moderateColor.Sprint(severity)
	default:
		return lowColor.Sprint(severity)
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func sortedKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
