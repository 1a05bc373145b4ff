// VietVal — Multi-model intrinsic valuation for Vietnamese equities
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vietquant/vietval/api"
	"github.com/vietquant/vietval/internal/config"
	"github.com/vietquant/vietval/internal/fundamentals"
	"github.com/vietquant/vietval/internal/report"
	"github.com/vietquant/vietval/internal/valuation"
	"github.com/vietquant/vietval/pkg/models"
	"github.com/vietquant/vietval/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vietval",
	Short: "VietVal — Multi-model intrinsic valuation for Vietnamese equities",
	Long: `VietVal values HOSE/HNX-listed companies with five models — FCFE and
FCFF discounted cash flow, justified P/E and P/B on sector medians, and
the Graham formula — and blends them into one weighted intrinsic value
with an upside-based recommendation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		setupLogging(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(valuateCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(peersCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// setupLogging configures logrus from the logging section.
func setupLogging(lc config.LoggingConfig) {
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if lc.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// newProvider builds the fundamentals client from the loaded config.
func newProvider() *fundamentals.Client {
	return fundamentals.NewClient(fundamentals.ClientOptions{
		BaseURL:    cfg.Provider.BaseURL,
		Timeout:    time.Duration(cfg.Provider.TimeoutSec) * time.Second,
		CacheTTL:   time.Duration(cfg.Provider.CacheTTLSec) * time.Second,
		RatePerSec: cfg.Provider.RatePerSec,
		FallbackPE: cfg.Valuation.FallbackPE,
		FallbackPB: cfg.Valuation.FallbackPB,
	})
}

// newEngine builds a valuation engine from the loaded config.
func newEngine() *valuation.Engine {
	engine := valuation.NewEngine()
	engine.Graham = valuation.GrahamConfig{
		Multiplier:   cfg.Valuation.Graham.Multiplier,
		ExcludeBanks: cfg.Valuation.Graham.ExcludeBanks,
	}
	return engine
}

// assumptionsFromFlags starts from the configured defaults and applies
// any flag the user set explicitly.
func assumptionsFromFlags(cmd *cobra.Command) models.Assumptions {
	a := models.Assumptions{
		RevenueGrowth:   cfg.Valuation.RevenueGrowth,
		TerminalGrowth:  cfg.Valuation.TerminalGrowth,
		WACC:            cfg.Valuation.WACC,
		RequiredReturn:  cfg.Valuation.RequiredReturn,
		TaxRate:         cfg.Valuation.TaxRate,
		ProjectionYears: cfg.Valuation.ProjectionYears,
	}

	if cmd.Flags().Changed("growth") {
		a.RevenueGrowth, _ = cmd.Flags().GetFloat64("growth")
	}
	if cmd.Flags().Changed("terminal-growth") {
		a.TerminalGrowth, _ = cmd.Flags().GetFloat64("terminal-growth")
	}
	if cmd.Flags().Changed("wacc") {
		a.WACC, _ = cmd.Flags().GetFloat64("wacc")
	}
	if cmd.Flags().Changed("required-return") {
		a.RequiredReturn, _ = cmd.Flags().GetFloat64("required-return")
	}
	if cmd.Flags().Changed("tax-rate") {
		a.TaxRate, _ = cmd.Flags().GetFloat64("tax-rate")
	}
	if cmd.Flags().Changed("years") {
		a.ProjectionYears, _ = cmd.Flags().GetInt("years")
	}
	return a
}

// addAssumptionFlags registers the shared assumption override flags.
func addAssumptionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("growth", 8.0, "cash flow growth rate, % per year")
	cmd.Flags().Float64("terminal-growth", 3.0, "terminal growth rate, %")
	cmd.Flags().Float64("wacc", 10.5, "WACC discount rate for FCFF, %")
	cmd.Flags().Float64("required-return", 12.0, "cost of equity for FCFE, %")
	cmd.Flags().Float64("tax-rate", 20.0, "corporate tax rate, %")
	cmd.Flags().Int("years", 5, "explicit projection horizon, years")
	cmd.Flags().Float64("price", 0, "manual current price override, VND")
	cmd.Flags().StringSlice("disable", nil, "models to disable (fcfe, fcff, justified_pe, justified_pb, graham)")
}

// weightsFromFlags turns --disable flags into a weight set. Returns nil
// when nothing was disabled so the engine applies its defaults.
func weightsFromFlags(cmd *cobra.Command, isBank bool) (models.WeightSet, error) {
	disabled, _ := cmd.Flags().GetStringSlice("disable")
	if len(disabled) == 0 {
		return nil, nil
	}

	ws := models.DefaultWeightSet(isBank && cfg.Valuation.Graham.ExcludeBanks)
	for _, name := range disabled {
		key := models.ModelKey(name)
		if _, ok := ws[key]; !ok {
			return nil, fmt.Errorf("unknown model: %s", name)
		}
		ws[key] = models.ModelWeight{Enabled: false, Weight: 0}
	}
	return ws, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("VietVal %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Valuate Command ---

var valuateCmd = &cobra.Command{
	Use:   "valuate [symbol]",
	Short: "Run a multi-model valuation on a stock",
	Long: `Run all five valuation models against one company and print the
weighted intrinsic value, per-model breakdown, and recommendation.

Examples:
  vietval valuate VNM
  vietval valuate FPT --wacc 11 --growth 12
  vietval valuate VCB --disable graham --price 95000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := utils.NormalizeSymbol(args[0])
		if !utils.IsValidSymbol(symbol) {
			return fmt.Errorf("invalid symbol: %s", symbol)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		provider := newProvider()
		f, err := provider.GetFundamentals(ctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch fundamentals for %s: %w", symbol, err)
		}

		weights, err := weightsFromFlags(cmd, f.IsBank)
		if err != nil {
			return err
		}
		price, _ := cmd.Flags().GetFloat64("price")

		vr := newEngine().Valuate(f, assumptionsFromFlags(cmd), weights, price)
		printValuation(vr, f)
		return nil
	},
}

func init() {
	addAssumptionFlags(valuateCmd)
}

// printValuation renders a valuation result to the terminal.
func printValuation(vr models.ValuationResult, f *models.FundamentalsBundle) {
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("  %s — %s\n", vr.Symbol, f.OrganName)
	fmt.Printf("  Industry: %s\n", f.Industry)
	fmt.Println("═══════════════════════════════════════════════════")

	for _, key := range models.AllModels {
		res, ok := vr.PerModel[key]
		if !ok {
			continue
		}
		w := vr.Weights[key]

		status := ""
		switch {
		case !res.Valid:
			status = "  [invalid, excluded]"
		case res.Breakdown.Incomplete:
			status = "  [incomplete inputs]"
		case !w.Enabled:
			status = "  [disabled]"
		}
		fmt.Printf("  %-34s %14s%s\n", res.MethodName, utils.FormatVND(res.FairValue), status)
	}

	fmt.Println("  ───────────────────────────────────────────────")
	fmt.Printf("  %-34s %14s\n", "Weighted intrinsic value", utils.FormatVND(vr.WeightedAverage))
	fmt.Printf("  %-34s %14s\n", "Current price", utils.FormatVND(vr.CurrentPrice))
	if vr.UpsideDefined {
		fmt.Printf("  %-34s %14s\n", "Upside", utils.FormatPct(vr.UpsidePercent))
	} else {
		fmt.Printf("  %-34s %14s\n", "Upside", "n/a")
	}
	fmt.Printf("  %-34s %14s\n", "Recommendation", vr.Recommendation)
	fmt.Println("═══════════════════════════════════════════════════")
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol]",
	Short: "Fetch the current market quote for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := utils.NormalizeSymbol(args[0])
		if !utils.IsValidSymbol(symbol) {
			return fmt.Errorf("invalid symbol: %s", symbol)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		q, err := newProvider().GetQuote(ctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch quote for %s: %w", symbol, err)
		}

		fmt.Printf("%s  %s  (%s)\n", q.Symbol, utils.FormatVND(q.Price), utils.FormatPct(q.ChangePercent))
		fmt.Printf("  Open: %s  High: %s  Low: %s\n",
			utils.FormatVND(q.Open), utils.FormatVND(q.High), utils.FormatVND(q.Low))
		fmt.Printf("  Ceiling: %s  Floor: %s  Reference: %s\n",
			utils.FormatVND(q.Ceiling), utils.FormatVND(q.Floor), utils.FormatVND(q.Reference))
		fmt.Printf("  Volume: %s\n", utils.FormatVolume(q.Volume))
		return nil
	},
}

// --- Peers Command ---

var peersCmd = &cobra.Command{
	Use:   "peers [symbol]",
	Short: "List sector peer comparables for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := utils.NormalizeSymbol(args[0])
		if !utils.IsValidSymbol(symbol) {
			return fmt.Errorf("invalid symbol: %s", symbol)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		peers, err := newProvider().GetPeers(ctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch peers for %s: %w", symbol, err)
		}

		fmt.Printf("  %-6s %-28s %16s %8s %8s\n", "Symbol", "Name", "Market cap", "P/E", "P/B")
		for _, p := range peers {
			fmt.Printf("  %-6s %-28s %16s %8.2f %8.2f\n",
				p.Symbol, p.Name, utils.FormatVNDCompact(p.MarketCap), p.PE, p.PB)
		}
		return nil
	},
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export [symbol]",
	Short: "Run a valuation and write an Excel or CSV report",
	Long: `Run a full valuation and export the result, including per-model
breakdowns, peer comparables, and the assumptions used.

Examples:
  vietval export VNM
  vietval export FPT --format csv --out ./fpt.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := utils.NormalizeSymbol(args[0])
		if !utils.IsValidSymbol(symbol) {
			return fmt.Errorf("invalid symbol: %s", symbol)
		}

		format, _ := cmd.Flags().GetString("format")
		if format != "xlsx" && format != "csv" {
			return fmt.Errorf("unsupported format: %s", format)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
		defer cancel()

		provider := newProvider()
		f, err := provider.GetFundamentals(ctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch fundamentals for %s: %w", symbol, err)
		}
		peers, err := provider.GetPeers(ctx, symbol)
		if err != nil {
			logrus.Warnf("peers unavailable for %s: %v", symbol, err)
			peers = nil
		}

		weights, err := weightsFromFlags(cmd, f.IsBank)
		if err != nil {
			return err
		}
		price, _ := cmd.Flags().GetFloat64("price")
		a := assumptionsFromFlags(cmd)
		vr := newEngine().Valuate(f, a, weights, price)

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			name := fmt.Sprintf("%s_valuation_%s.%s", symbol, utils.FormatDateICT(utils.NowICT()), format)
			out = filepath.Join(cfg.Report.OutputDir, name)
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer file.Close()

		switch format {
		case "csv":
			err = report.NewCSVBuilder(report.LogNotifier{}).WriteCSV(file, vr, f, a, peers)
		default:
			err = report.NewExcelBuilder(report.LogNotifier{}).WriteExcel(file, vr, f, a, peers)
		}
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		fmt.Printf("📄 Report written to %s\n", out)
		return nil
	},
}

func init() {
	addAssumptionFlags(exportCmd)
	exportCmd.Flags().String("format", "xlsx", "report format: xlsx or csv")
	exportCmd.Flags().String("out", "", "output file path (default: <output_dir>/<symbol>_valuation_<date>.<ext>)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := newProvider()

		refresher := fundamentals.NewRefresher(provider, cfg.Provider.Watchlist, cfg.Provider.RefreshSchedule)
		if err := refresher.Start(); err != nil {
			return fmt.Errorf("start watchlist refresher: %w", err)
		}
		defer refresher.Stop()

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting VietVal API server on %s\n", addr)
		return api.NewServer(cfg, provider).ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  VietVal — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (ICT):    %s\n", utils.FormatDateTimeICT(utils.NowICT()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Provider:      %s\n", cfg.Provider.BaseURL)
		fmt.Printf("    Watchlist:     %v\n", cfg.Provider.Watchlist)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Reports:       %s\n", cfg.Report.OutputDir)
		fmt.Println()

		fmt.Println("  Valuation Defaults:")
		fmt.Printf("    Growth / Terminal:   %.1f%% / %.1f%%\n", cfg.Valuation.RevenueGrowth, cfg.Valuation.TerminalGrowth)
		fmt.Printf("    WACC / Req. return:  %.1f%% / %.1f%%\n", cfg.Valuation.WACC, cfg.Valuation.RequiredReturn)
		fmt.Printf("    Horizon:             %d years\n", cfg.Valuation.ProjectionYears)
		fmt.Printf("    Graham:              %.1f× (banks excluded: %t)\n",
			cfg.Valuation.Graham.Multiplier, cfg.Valuation.Graham.ExcludeBanks)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
