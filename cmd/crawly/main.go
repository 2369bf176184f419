package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"crawly/pkg/config"
	"crawly/pkg/crawler"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	seedFlag := flag.String("url", "", "Seed URL to crawl (required)")
	configFileFlag := flag.String("config", "", "Path to optional YAML config file")
	depthFlag := flag.Int("depth", config.DefaultMaxDepth, "Maximum crawl depth")
	pagesFlag := flag.Int("pages", config.DefaultMaxPages, "Maximum number of pages to fetch")
	concurrencyFlag := flag.Int("concurrency", config.DefaultMaxConcurrentRequests, "Maximum simultaneous requests")
	delayFlag := flag.Duration("delay", config.DefaultRateLimitWait, "Default per-domain delay between requests")
	agentFlag := flag.String("agent", config.DefaultUserAgent, "User-Agent header")
	robotsFlag := flag.Bool("robots", true, "Respect robots.txt policies")
	mimesFlag := flag.String("mimes", "", "Comma-separated MIME allow-list (empty = unfiltered)")
	timeoutFlag := flag.Duration("timeout", 0, "Global crawl timeout (0 = none)")
	outputFlag := flag.String("output", "", "Write results as JSONL to this file (default: log URLs only)")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
	}

	if *seedFlag == "" {
		log.Fatal("Error: -url flag is required.")
	}

	// Config precedence: defaults, then the YAML file, then explicit flags.
	cfg := config.New()
	if *configFileFlag != "" {
		log.Infof("Loading configuration from %s", *configFileFlag)
		yamlFile, err := os.ReadFile(*configFileFlag)
		if err != nil {
			log.Fatalf("Read config file '%s' error: %v", *configFileFlag, err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			log.Fatalf("Parse config file '%s' error: %v", *configFileFlag, err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "depth":
			cfg.MaxDepth = *depthFlag
		case "pages":
			cfg.MaxPages = *pagesFlag
		case "concurrency":
			cfg.MaxConcurrentRequests = *concurrencyFlag
		case "delay":
			cfg.RateLimitWait = *delayFlag
		case "agent":
			cfg.UserAgent = *agentFlag
		case "robots":
			cfg.RespectRobots = *robotsFlag
		case "mimes":
			cfg.AllowedMIMEs = splitMIMEList(*mimesFlag)
		}
	})

	log.Infof("Config: Depth:%d, Pages:%d, Concurrency:%d, Delay:%v, Robots:%t, Agent:%q, MIMEs:%v",
		cfg.MaxDepth, cfg.MaxPages, cfg.MaxConcurrentRequests, cfg.RateLimitWait,
		cfg.RespectRobots, cfg.UserAgent, cfg.AllowedMIMEs)

	// --- Global context & signal handling ---
	var ctx context.Context
	var cancel context.CancelFunc
	if *timeoutFlag > 0 {
		log.Infof("Setting global crawl timeout: %v", *timeoutFlag)
		ctx, cancel = context.WithTimeout(context.Background(), *timeoutFlag)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Cancelling crawl...", sig)
		cancel()
		sig = <-sigChan
		log.Warnf("Received second signal: %v. Forcing exit.", sig)
		os.Exit(1)
	}()

	// --- Run ---
	c, err := crawler.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize crawler: %v", err)
	}

	start := time.Now()
	result, err := c.Start(ctx, *seedFlag)
	if err != nil {
		log.Fatalf("Crawl failed: %v", err)
	}
	log.Infof("Fetched %d page(s) in %v", result.Len(), time.Since(start))

	// --- Output ---
	if *outputFlag != "" {
		if err := writeJSONL(*outputFlag, result); err != nil {
			log.Fatalf("Failed to write output file '%s': %v", *outputFlag, err)
		}
		log.Infof("Wrote results to %s", *outputFlag)
	} else {
		for _, u := range result.URLs() {
			log.Infof("Fetched: %s", u)
		}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn("Crawl stopped by global timeout; results may be incomplete.")
	}
}

// splitMIMEList parses a comma-separated MIME list, dropping empty
// segments.
func splitMIMEList(s string) []string {
	var mimes []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			mimes = append(mimes, m)
		}
	}
	return mimes
}

// writeJSONL writes one {url, content} JSON record per line, in completion
// order.
func writeJSONL(path string, result *crawler.ContentMap) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, page := range result.Pages() {
		if err := enc.Encode(page); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
