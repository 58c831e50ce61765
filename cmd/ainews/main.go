package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deusflow/ainews/internal/app"
	"github.com/deusflow/ainews/internal/metrics"
)

func main() {
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var outputDir string
	var configPath string

	cmd := &cobra.Command{
		Use:   "ainews [topic]",
		Short: "Smart news collector: search, filter and summarize topic news into an HTML report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := ""
			if len(args) > 0 {
				topic = args[0]
			}
			topic, err := resolveTopic(topic)
			if err != nil {
				return err
			}
			if topic == "" {
				return fmt.Errorf("no keyword provided")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.Run(ctx, app.Options{
				Topic:      topic,
				OutputDir:  outputDir,
				ConfigPath: configPath,
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for html reports")
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml")
	return cmd
}

// resolveTopic falls back from the argument to the NEWS_TOPIC env var,
// then to an interactive prompt.
func resolveTopic(topic string) (string, error) {
	if topic != "" {
		return topic, nil
	}
	if env := os.Getenv("NEWS_TOPIC"); env != "" {
		return env, nil
	}
	fmt.Print("Please enter news keyword (e.g. 'AI Agent'): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("cannot get input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if healthy, ok := stats["is_healthy"].(bool); ok && !healthy {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
