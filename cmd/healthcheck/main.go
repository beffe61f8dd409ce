// Command healthcheck probes the API health endpoint and exits 0 when it
// answers 200, 1 otherwise. It is meant for container HEALTHCHECK directives.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultURL() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return "http://localhost:" + port + "/api/health"
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "healthcheck",
		Short:         "Check that the API reports healthy",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			status, err := probe(ctx, http.DefaultClient, url)
			if err != nil {
				fmt.Fprintf(out, "UNHEALTHY: %v\n", err)
				return err
			}
			if status != http.StatusOK {
				fmt.Fprintf(out, "UNHEALTHY: status %d\n", status)
				return fmt.Errorf("unexpected status %d", status)
			}

			fmt.Fprintln(out, "OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", defaultURL(), "health endpoint to probe")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")

	return cmd
}

func probe(ctx context.Context, client *http.Client, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
