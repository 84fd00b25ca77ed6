// runhistory prints the best runs recorded by lanerunner.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/persist"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	limit := flag.Int("limit", 10, "number of runs to list")
	flag.Parse()

	cfgPath := "config/lanerunner.toml"
	if p := os.Getenv("LANERUNNER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "migrations: %v\n", err)
		os.Exit(1)
	}

	rows, err := persist.NewRunRepo(db).Best(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query runs: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Println("no runs recorded yet")
		return
	}

	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tscore\tdistance\tticks\tseed\tended\t")
	for i, r := range rows {
		p.Fprintf(w, "%d\t%d\t%.1f\t%d\t%d\t%s\t\n",
			i+1, r.Score, r.Distance, r.Ticks, r.Seed, r.EndedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}
