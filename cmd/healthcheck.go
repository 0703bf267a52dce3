package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fenilmodi00/vnmarket/services"
	"github.com/spf13/cobra"
)

// healthCheck is one named probe; detail is printed after the status mark
type healthCheck struct {
	name string
	run  func(ctx context.Context) (detail string, err error)
}

func newHealthCheckCmd() *cobra.Command {
	var (
		serverURL string
		timeout   time.Duration
	)

	healthCmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that every variant generates and, optionally, that a server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			checks := variantChecks()
			if serverURL != "" {
				checks = append(checks, serverCheck(serverURL))
			}
			return runHealthChecks(ctx, cmd.OutOrStdout(), checks)
		},
	}

	healthCmd.Flags().StringVar(&serverURL, "url", "", "base URL of a running server to probe, e.g. http://localhost:8080")
	healthCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "overall time limit for the checks")
	return healthCmd
}

func variantChecks() []healthCheck {
	var checks []healthCheck
	for _, name := range services.VariantNames() {
		name := name
		checks = append(checks, healthCheck{
			name: "Variant " + name,
			run: func(ctx context.Context) (string, error) {
				policy, err := services.PolicyFor(name)
				if err != nil {
					return "", err
				}
				if err := policy.Validate(); err != nil {
					return "", err
				}

				universe := policy.Universe()
				snapshot := services.NewSnapshotService(time.Now().UnixNano(), nil).Generate(policy, universe)
				if len(snapshot.MarketData) != len(universe) {
					return "", fmt.Errorf("generated %d of %d quotes", len(snapshot.MarketData), len(universe))
				}
				return fmt.Sprintf("%d quotes, %d alerts", len(snapshot.MarketData), len(snapshot.Alerts)), nil
			},
		})
	}
	return checks
}

func serverCheck(baseURL string) healthCheck {
	return healthCheck{
		name: "Server",
		run: func(ctx context.Context) (string, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/health", nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			return resp.Status, nil
		},
	}
}

// runHealthChecks prints one line per check and a summary, and fails unless every check passed
func runHealthChecks(ctx context.Context, w io.Writer, checks []healthCheck) error {
	fmt.Fprintf(w, "%s health check - %s\n", programName, time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, strings.Repeat("=", 50))

	passed := 0
	for _, check := range checks {
		detail, err := check.run(ctx)
		if err != nil {
			fmt.Fprintf(w, "%s: FAILED (%v)\n", check.name, err)
			continue
		}
		fmt.Fprintf(w, "%s: OK (%s)\n", check.name, detail)
		passed++
	}

	fmt.Fprintln(w, strings.Repeat("-", 50))
	total := len(checks)
	switch {
	case passed == total:
		fmt.Fprintf(w, "SYSTEM HEALTHY: %d/%d checks passed\n", passed, total)
		return nil
	case passed >= total/2:
		fmt.Fprintf(w, "SYSTEM DEGRADED: %d/%d checks passed\n", passed, total)
	default:
		fmt.Fprintf(w, "SYSTEM UNHEALTHY: %d/%d checks passed\n", passed, total)
	}
	return fmt.Errorf("%d of %d health checks failed", total-passed, total)
}
