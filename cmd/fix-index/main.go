// Command fix-index checks the full-text search index against the notes
// table and rebuilds it when they disagree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"notecottage/internal/config"
	"notecottage/internal/store"
)

func main() {
	force := flag.Bool("force", false, "rebuild even when the index looks healthy")
	flag.Parse()

	cfg := config.Load()
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	checkErr := st.CheckSearchIndex(ctx)
	if checkErr == nil && !*force {
		fmt.Fprintf(os.Stderr, "search index healthy in %s, nothing to do\n", cfg.DBPath)
		return
	}
	if checkErr != nil {
		fmt.Fprintf(os.Stderr, "search index unhealthy: %v\n", checkErr)
	}

	if err := st.RebuildSearchIndex(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	if err := st.CheckSearchIndex(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "index still unhealthy after rebuild: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "search index rebuilt in %s\n", cfg.DBPath)
}
