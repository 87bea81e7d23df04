package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"imperialism.ai/internal/sim/engine"
)

func main() {
	var opts simOptions

	rootCmd := &cobra.Command{
		Use:   "econsim",
		Short: "Run economy scenarios turn by turn",
		Long: `Loads a YAML scenario, submits its scripted orders each player turn
and reports trades, shortfalls and prices after every processing phase.`,
	}
	rootCmd.PersistentFlags().StringVar(&opts.ConfigDir, "configs", "./configs", "config directory")

	runCmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Play a scenario and print a per-turn report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Scenario = args[0]
			res, err := simulate(opts)
			if err != nil {
				return err
			}
			printReport(res)
			return nil
		},
	}
	runCmd.Flags().IntVar(&opts.Turns, "turns", 0, "number of turns (default: scenario value)")
	runCmd.Flags().StringVar(&opts.DataDir, "data", "", "write turn/audit logs and a final snapshot here")

	verifyCmd := &cobra.Command{
		Use:   "verify <scenario.yaml>",
		Short: "Play a scenario twice and compare state digests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Scenario = args[0]
			opts.DataDir = ""
			turn, err := verifyDeterminism(opts)
			if err != nil {
				color.Red("✗ %v", err)
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ %d turns, digests match\n", turn)
			return nil
		},
	}
	verifyCmd.Flags().IntVar(&opts.Turns, "turns", 0, "number of turns (default: scenario value)")

	rootCmd.AddCommand(runCmd, verifyCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// verifyDeterminism returns the number of turns compared.
func verifyDeterminism(opts simOptions) (int, error) {
	a, err := simulate(opts)
	if err != nil {
		return 0, err
	}
	b, err := simulate(opts)
	if err != nil {
		return 0, err
	}
	if len(a.Turns) != len(b.Turns) {
		return 0, fmt.Errorf("turn count differs: %d vs %d", len(a.Turns), len(b.Turns))
	}
	for i := range a.Turns {
		if a.Turns[i].Digest != b.Turns[i].Digest {
			return i, fmt.Errorf("turn %d digest differs: %s vs %s", a.Turns[i].Turn, a.Turns[i].Digest, b.Turns[i].Digest)
		}
	}
	return len(a.Turns), nil
}

func printReport(res simResult) {
	titleColor := color.New(color.FgCyan, color.Bold)
	warnColor := color.New(color.FgYellow)

	titleColor.Printf("\nScenario %s\n", res.Name)

	for _, t := range res.Turns {
		titleColor.Printf("\nTurn %d\n", t.Turn)
		for _, r := range res.Rejections {
			if r.Turn == t.Turn {
				warnColor.Printf("  rejected %s #%d %s: %s %s\n", r.Nation, r.Result.Index, r.Result.Kind, r.Result.Code, r.Result.Message)
			}
		}
		for _, n := range t.Nations {
			for _, s := range n.Shortfalls {
				warnColor.Printf("  shortfall %s: %+v\n", n.Nation, s)
			}
		}
		for _, f := range t.FailedTrades {
			color.Red("  failed trade %s %s->%s: %s", f.Trade.Good, f.Trade.Seller, f.Trade.Buyer, f.Reason)
		}
		if len(t.Trades) == 0 {
			fmt.Println("  no trades")
			continue
		}
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Good", "Seller", "Buyer", "Units", "Price", "Total"}),
		)
		for _, row := range tradeRows(t) {
			_ = table.Append(row)
		}
		_ = table.Render()
	}

	if res.Final == nil {
		return
	}
	titleColor.Printf("\nFinal state (turn %d)\n", res.Final.Turn)
	nations := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Nation", "Treasury", "Workers", "Transport"}),
	)
	for _, n := range res.Final.Nations {
		var workers uint32
		for _, c := range n.Workers {
			workers += c
		}
		tv := res.Final.Transport[n.ID]
		_ = nations.Append([]string{
			n.ID,
			humanize.Comma(int64(n.Treasury)),
			fmt.Sprintf("%d", workers),
			fmt.Sprintf("%d", tv.Capacity.Total),
		})
	}
	_ = nations.Render()

	prices := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Good", "Price"}),
	)
	keys := make([]string, 0, len(res.Final.Prices))
	for g := range res.Final.Prices {
		keys = append(keys, g)
	}
	sort.Strings(keys)
	for _, g := range keys {
		_ = prices.Append([]string{g, humanize.Comma(int64(res.Final.Prices[g]))})
	}
	_ = prices.Render()

	if res.Snapshot != "" {
		fmt.Printf("\nsnapshot written to %s\n", res.Snapshot)
	}
}

// tradeRows groups a turn's unit trades by good, seller, buyer and price,
// keeping first-seen order.
func tradeRows(t engine.TurnLogEntry) [][]string {
	type key struct {
		good, seller, buyer string
		price               uint32
	}
	var order []key
	units := map[key]int{}
	for _, tr := range t.Trades {
		k := key{string(tr.Good), tr.Seller, tr.Buyer, tr.Price}
		if _, ok := units[k]; !ok {
			order = append(order, k)
		}
		units[k]++
	}
	rows := make([][]string, 0, len(order))
	for _, k := range order {
		n := units[k]
		rows = append(rows, []string{
			k.good, k.seller, k.buyer,
			fmt.Sprintf("%d", n),
			humanize.Comma(int64(k.price)),
			humanize.Comma(int64(k.price) * int64(n)),
		})
	}
	return rows
}
