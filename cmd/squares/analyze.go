package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/yourusername/squares-ev/internal/oddsfeed"
	"github.com/yourusername/squares-ev/internal/service"
	"github.com/yourusername/squares-ev/internal/view"
)

var analyzeFlags struct {
	board   string
	marketA string
	marketB string
	event   string
	price   float64
	weightA float64
	weightB float64
	top     int
	format  string
	sort    string
	order   string
	filter  string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute expected value for every participant on a board",
	Long: `Analyze a pasted board against two odds markets. Markets come from JSON
files (--market-a/--market-b) or, with the odds feed enabled, from --event.`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.board, "board", "b", "-", "Board text file, or - for stdin")
	f.StringVar(&analyzeFlags.marketA, "market-a", "", "Odds file for the first market")
	f.StringVar(&analyzeFlags.marketB, "market-b", "", "Odds file for the second market")
	f.StringVar(&analyzeFlags.event, "event", "", "Fetch both markets for this event from the odds feed")
	f.Float64Var(&analyzeFlags.price, "price", 0, "Price per square (default from config)")
	f.Float64Var(&analyzeFlags.weightA, "weight-a", 0, "Blend weight of the first market (default from config)")
	f.Float64Var(&analyzeFlags.weightB, "weight-b", 0, "Blend weight of the second market (default from config)")
	f.IntVar(&analyzeFlags.top, "top", 10, "Number of ranked squares to show")
	f.StringVarP(&analyzeFlags.format, "format", "f", "table", "Output format: table or json")
	f.StringVar(&analyzeFlags.sort, "sort", "total_ev", "Leaderboard sort: total_ev, ev_per_square, squares, best_square, name")
	f.StringVar(&analyzeFlags.order, "order", "desc", "Leaderboard order: asc or desc")
	f.StringVar(&analyzeFlags.filter, "filter", "", "Only show participants whose name contains this text")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFlags.format != "table" && analyzeFlags.format != "json" {
		return fmt.Errorf("unknown format %q", analyzeFlags.format)
	}
	opts := view.LeaderboardOptions{
		SortBy: view.SortKey(analyzeFlags.sort),
		Order:  analyzeFlags.order,
		Filter: analyzeFlags.filter,
	}
	if err := validator.New().Struct(opts); err != nil {
		return fmt.Errorf("invalid leaderboard options: %w", err)
	}

	text, err := readInput(analyzeFlags.board)
	if err != nil {
		return err
	}

	svc, client, err := buildService()
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	req := service.AnalysisRequest{Text: text}
	if err := loadMarkets(cmd, svc, &req); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("price") {
		req.PricePerSquare = &analyzeFlags.price
	}
	if flags.Changed("weight-a") || flags.Changed("weight-b") {
		weights := svc.Settings().Weights
		if flags.Changed("weight-a") {
			weights.A = analyzeFlags.weightA
		}
		if flags.Changed("weight-b") {
			weights.B = analyzeFlags.weightB
		}
		req.Weights = &weights
	}

	analysis, err := svc.Analyze(req)
	if err != nil {
		return err
	}

	dashboard := view.BuildDashboard(analysis.Board, analysis.Result, opts, analyzeFlags.top)
	if analyzeFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*service.Analysis
			Dashboard view.Dashboard `json:"dashboard"`
		}{analysis, dashboard})
	}

	fmt.Fprintf(os.Stdout, "%s (columns) vs %s (rows)\n\n", analysis.Board.HomeLabel, analysis.Board.AwayLabel)
	return view.WriteTable(os.Stdout, dashboard)
}

// loadMarkets fills the request's matrices from files or the odds feed.
func loadMarkets(cmd *cobra.Command, svc *service.AnalysisService, req *service.AnalysisRequest) error {
	switch {
	case analyzeFlags.marketA != "" && analyzeFlags.marketB != "":
		a, err := oddsfeed.LoadMatrixFile(analyzeFlags.marketA)
		if err != nil {
			return err
		}
		b, err := oddsfeed.LoadMatrixFile(analyzeFlags.marketB)
		if err != nil {
			return err
		}
		req.MarketA, req.MarketB = &a.Matrix, &b.Matrix
		return nil

	case analyzeFlags.marketA != "" || analyzeFlags.marketB != "":
		return fmt.Errorf("--market-a and --market-b must be given together")

	default:
		pair, err := svc.FetchOdds(cmd.Context(), analyzeFlags.event)
		if err != nil {
			return fmt.Errorf("no odds files given and the odds feed failed: %w", err)
		}
		req.MarketA, req.MarketB = &pair.A.Matrix, &pair.B.Matrix
		return nil
	}
}
