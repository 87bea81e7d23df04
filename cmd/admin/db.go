package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"imperialism.ai/internal/persistence/indexdb"
	"imperialism.ai/internal/sim/goods"
)

// dbCmd queries the sqlite index written by the server:
//
//	admin db [-game id] turns|trades|prices|audit|snapshots
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	gameID := fs.String("game", "game_1", "game id (ignored with -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	turn := fs.Uint64("turn", 0, "turn (trades)")
	good := fs.String("good", "COAL", "good (prices)")
	nationID := fs.String("nation", "", "nation (audit)")
	limit := fs.Int("limit", 20, "result limit (turns)")
	_ = fs.Parse(args)

	q := "turns"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(gameDir(*dataDir, *gameID), "index.db")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	fail := func(err error) {
		fmt.Fprintln(os.Stderr, "query:", err)
		_ = idx.Close()
		os.Exit(1)
	}

	switch q {
	case "turns":
		if *limit <= 0 {
			*limit = 20
		}
		rows, err := idx.Turns(*limit)
		if err != nil {
			fail(err)
		}
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Turn", "Nations", "Trades", "Failed", "Digest"}),
		)
		for _, r := range rows {
			_ = table.Append([]string{
				fmt.Sprintf("%d", r.Turn),
				fmt.Sprintf("%d", r.Nations),
				fmt.Sprintf("%d", r.Trades),
				fmt.Sprintf("%d", r.Failed),
				r.Digest,
			})
		}
		_ = table.Render()

	case "trades":
		if *turn == 0 {
			rows, err := idx.Turns(1)
			if err != nil {
				fail(err)
			}
			if len(rows) == 0 {
				fmt.Fprintln(os.Stderr, "no turns indexed")
				os.Exit(2)
			}
			*turn = rows[0].Turn
		}
		rows, err := idx.Trades(*turn)
		if err != nil {
			fail(err)
		}
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"#", "Good", "Price", "Seller", "Buyer"}),
		)
		var total int64
		for _, r := range rows {
			total += int64(r.Price)
			_ = table.Append([]string{
				fmt.Sprintf("%d", r.Seq),
				r.Good,
				humanize.Comma(int64(r.Price)),
				r.Seller,
				r.Buyer,
			})
		}
		_ = table.Render()
		fmt.Printf("turn %d: %d trades, %s moved\n", *turn, len(rows), humanize.Comma(total))

	case "prices":
		g, err := goods.Parse(*good)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -good:", err)
			os.Exit(2)
		}
		rows, err := idx.PriceHistory(string(g))
		if err != nil {
			fail(err)
		}
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Turn", "Price", "Supply", "Demand"}),
		)
		for _, r := range rows {
			_ = table.Append([]string{
				fmt.Sprintf("%d", r.Turn),
				humanize.Comma(int64(r.Price)),
				fmt.Sprintf("%d", r.Supply),
				fmt.Sprintf("%d", r.Demand),
			})
		}
		_ = table.Render()

	case "audit":
		if strings.TrimSpace(*nationID) == "" {
			fmt.Fprintln(os.Stderr, "missing -nation")
			os.Exit(2)
		}
		rows, err := idx.Audits(*nationID)
		if err != nil {
			fail(err)
		}
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Turn", "Action", "Order", "Code", "Reason"}),
		)
		for _, r := range rows {
			_ = table.Append([]string{fmt.Sprintf("%d", r.Turn), r.Action, r.OrderID, r.Code, r.Reason})
		}
		_ = table.Render()

	case "snapshots":
		rows, err := idx.Snapshots()
		if err != nil {
			fail(err)
		}
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Turn", "Phase", "Nations", "Rails", "Path"}),
		)
		for _, r := range rows {
			_ = table.Append([]string{fmt.Sprintf("%d", r.Turn), r.Phase, fmt.Sprintf("%d", r.Nations), fmt.Sprintf("%d", r.Rails), r.Path})
		}
		_ = table.Render()

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		os.Exit(2)
	}
}
