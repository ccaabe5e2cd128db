// Command cardsearch runs one directory search from the terminal and prints
// the rendered listing, exactly as the directory page would show it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-directory/internal/listing"
	"github.com/noah-isme/alumni-directory/pkg/config"
	"github.com/noah-isme/alumni-directory/pkg/logger"
)

type options struct {
	baseURL    string
	token      string
	department string
	course     string
	year       string
	search     string
	asJSON     bool
	metrics    bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	opts, err := parseFlags(os.Args[1:], cfg.Listing)
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr, logr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string, defaults config.ListingConfig) (options, error) {
	var opts options
	fs := flag.NewFlagSet("cardsearch", flag.ContinueOnError)
	fs.StringVar(&opts.baseURL, "base-url", defaults.BaseURL, "Directory server base URL")
	fs.StringVar(&opts.token, "token", defaults.Token, "Bearer token for the directory routes")
	fs.StringVar(&opts.department, "department", "", "Department to filter on")
	fs.StringVar(&opts.course, "course", "", "Course to filter on")
	fs.StringVar(&opts.year, "year", "", "Year of passing to filter on")
	fs.StringVar(&opts.search, "search", "", "Name or enrollment number substring")
	fs.BoolVar(&opts.asJSON, "json", false, "Print the decoded cards as JSON instead of markup")
	fs.BoolVar(&opts.metrics, "metrics", false, "Write dispatch metrics in Prometheus text format to stderr")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// run drives a listing page through the same events a visitor would raise:
// dropdown picks, typing into the search box, then pressing search.
// An empty pick is the dropdown's "any" entry.
func run(ctx context.Context, opts options, out, errOut io.Writer, logr *zap.Logger) error {
	container := &listing.MemoryContainer{}
	dispatchOpts := []listing.Option{listing.WithLogger(logr), listing.WithBearerToken(opts.token)}
	var reg *prometheus.Registry
	if opts.metrics {
		reg = prometheus.NewRegistry()
		dispatchOpts = append(dispatchOpts, listing.WithMetrics(reg))
	}
	dispatcher := listing.NewDispatcher(opts.baseURL, dispatchOpts...)
	page := listing.NewPage(listing.NewStore(), dispatcher, listing.NewRenderer(container, logr), logr)

	picks := []struct{ class, value string }{
		{"department-item", opts.department},
		{"course-item", opts.course},
		{"year-item", opts.year},
	}
	for _, pick := range picks {
		var err error
		if pick.value == "" {
			err = page.Clear(pick.class)
		} else {
			err = page.Activate(pick.class, pick.value)
		}
		if err != nil {
			return err
		}
	}
	page.Input().Set(opts.search)

	outcome := <-page.Search(ctx)

	if reg != nil {
		if err := writeMetrics(errOut, reg); err != nil {
			logr.Warn("write dispatch metrics", zap.Error(err))
		}
	}

	if opts.asJSON && outcome.Err == nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome.Cards)
	}
	if _, err := fmt.Fprintln(out, container.Content()); err != nil {
		return err
	}
	if outcome.Err != nil {
		return errors.New(listing.ErrorNotice)
	}
	return nil
}

func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
