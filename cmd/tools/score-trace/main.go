// Command score-trace scores a recorded trace offline.
//
//	score-trace -html report.html trace.json
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gemstone08/circle/internal/config"
	"github.com/gemstone08/circle/internal/fsutil"
	"github.com/gemstone08/circle/internal/httputil"
)

func main() {
	configFile := flag.String("config", "", "Path to a JSON config file")
	htmlPath := flag.String("html", "", "Write an interactive chart to this file")
	pngPath := flag.String("png", "", "Write a PNG plot to this file")
	submitURL := flag.String("submit", "", "Also POST the trace to this /submit URL")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: %s [flags] trace.json", os.Args[0])
	}

	cfg := config.EmptyConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(*configFile); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatalf("failed to apply environment: %v", err)
	}

	fsys := fsutil.OSFileSystem{}
	sub, err := LoadSubmission(fsys, flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to load trace: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	opts := Options{
		HTMLPath:  *htmlPath,
		PNGPath:   *pngPath,
		SubmitURL: *submitURL,
		Client:    httputil.NewStandardClient(&http.Client{Timeout: 10 * time.Second}),
		FS:        fsys,
	}
	if _, err := RunTrace(ctx, cfg, sub, opts, os.Stdout); err != nil {
		log.Fatalf("score-trace failed: %v", err)
	}
}
