package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	persistlog "imperialism.ai/internal/persistence/log"
	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/sim/goods"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "turns":
			turnsCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "status":
			statusCmd(os.Args[2:])
			return
		case "advance":
			advanceCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func gameDir(dataDir, gameID string) string {
	return filepath.Join(dataDir, "games", gameID)
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "games")
	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Game", "Latest snapshot", "Turn", "Size"}),
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		row := []string{e.Name(), "-", "-", "-"}
		if p := snapshot.Latest(filepath.Join(base, e.Name(), "snapshots")); p != "" {
			row[1] = filepath.Base(p)
			if h, err := snapshot.ReadHeader(p); err == nil {
				row[2] = fmt.Sprintf("%d", h.Turn)
			}
			if st, err := os.Stat(p); err == nil {
				row[3] = humanize.Bytes(uint64(st.Size()))
			}
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	gameID := fs.String("game", "game_1", "game id")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		path = snapshot.Latest(filepath.Join(gameDir(*dataDir, *gameID), "snapshots"))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot=%s game=%s turn=%d phase=%s nations=%d structures=%d rails=%d\n",
		filepath.Base(path), snap.Header.EngineID, snap.Header.Turn, snap.Phase,
		len(snap.Nations), len(snap.Structures), len(snap.Rails))

	nations := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Nation", "Name", "Treasury", "Workers", "Buildings", "Stock"}),
	)
	for _, n := range snap.Nations {
		var stock []string
		for _, g := range sortedGoods(n.Stock) {
			if q := n.Stock[g]; q > 0 {
				stock = append(stock, fmt.Sprintf("%s=%d", g, q))
			}
		}
		_ = nations.Append([]string{
			n.ID,
			n.Name,
			humanize.Comma(int64(n.Treasury)),
			fmt.Sprintf("%d", len(n.Workers)),
			fmt.Sprintf("%d", len(n.Buildings)),
			strings.Join(stock, " "),
		})
	}
	_ = nations.Render()

	prices := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Good", "Price", "Last supply", "Last demand"}),
	)
	for _, g := range sortedGoods(snap.Prices) {
		v := snap.LastVolumes[g]
		_ = prices.Append([]string{
			string(g),
			humanize.Comma(int64(snap.Prices[g])),
			fmt.Sprintf("%d", v.Supply),
			fmt.Sprintf("%d", v.Demand),
		})
	}
	_ = prices.Render()
}

func turnsCmd(args []string) {
	fs := flag.NewFlagSet("turns", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	gameID := fs.String("game", "game_1", "game id")
	since := fs.Uint64("since", 0, "first turn to show")
	_ = fs.Parse(args)

	turns, err := persistlog.ReadTurns(gameDir(*dataDir, *gameID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read turns:", err)
		os.Exit(1)
	}
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Turn", "Trades", "Failed", "Shortfalls", "Digest"}),
	)
	for _, t := range turns {
		if t.Turn < *since {
			continue
		}
		shortfalls := 0
		for _, n := range t.Nations {
			shortfalls += len(n.Shortfalls)
		}
		digest := t.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", t.Turn),
			fmt.Sprintf("%d", len(t.Trades)),
			fmt.Sprintf("%d", len(t.FailedTrades)),
			fmt.Sprintf("%d", shortfalls),
			digest,
		})
	}
	_ = table.Render()
}

func sortedGoods[V any](m map[goods.Good]V) []goods.Good {
	out := make([]goods.Good, 0, len(m))
	for g := range m {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return goods.Less(out[i], out[j]) })
	return out
}
