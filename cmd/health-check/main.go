// Package main provides a standalone readiness probe for container health checks
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/monitoring"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL          string
	ConfigPath   string
	Timeout      time.Duration
	RetryCount   int
	RetryDelay   time.Duration
	OutputFormat string
	Verbose      bool
}

// readinessResponse mirrors the ops server readiness body
type readinessResponse struct {
	Status string                   `json:"status"`
	Checks []monitoring.HealthCheck `json:"checks"`
}

func main() {
	os.Exit(run(parseFlags()))
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.URL, "url", "", "Readiness URL (default derived from configuration)")
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	flag.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	flag.Parse()

	return opts
}

func run(opts Options) int {
	if opts.URL == "" {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			fmt.Printf("Failed to load configuration: %v\n", err)
			return exitCodeError
		}
		opts.URL = fmt.Sprintf("http://127.0.0.1:%d%s", cfg.Monitoring.MetricsPort, cfg.Monitoring.ReadinessPath)
	}

	client := &http.Client{Timeout: opts.Timeout}

	var lastErr error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Printf("Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		result, code, err := probe(client, opts.URL)
		if err != nil {
			lastErr = err
			if opts.Verbose {
				fmt.Printf("Request failed: %v\n", err)
			}
			continue
		}

		output(result, opts)
		if code == http.StatusOK && result.Status == monitoring.StatusHealthy {
			return exitCodeSuccess
		}
		lastErr = fmt.Errorf("status %s (HTTP %d)", result.Status, code)
	}

	fmt.Printf("Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastErr)
	return exitCodeFailure
}

func probe(client *http.Client, url string) (readinessResponse, int, error) {
	var result readinessResponse

	resp, err := client.Get(url)
	if err != nil {
		return result, 0, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return result, resp.StatusCode, nil
}

func output(result readinessResponse, opts Options) {
	if opts.OutputFormat == "json" {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Status: %s\n", result.Status)
	if opts.Verbose {
		for _, check := range result.Checks {
			fmt.Printf("  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Printf(" (%s)", check.Message)
			}
			fmt.Printf(" [%dms]\n", check.Duration.Milliseconds())
		}
	}
}
