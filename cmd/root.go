package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fenilmodi00/vnmarket/config"
	"github.com/fenilmodi00/vnmarket/models"
	"github.com/fenilmodi00/vnmarket/services"
	"github.com/fenilmodi00/vnmarket/shared"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const programName = "vnmarket"

// errNoSymbols is returned when the symbols argument is missing
var errNoSymbols = errors.New("no symbols provided")

// snapshotOptions are the flags shared by the root and serve commands
type snapshotOptions struct {
	variant    string
	seed       int64
	newsLimit  int
	maxAlerts  int
	policyFile string
	timestamp  string
}

func (o *snapshotOptions) register(cmd *cobra.Command, cfg *config.Config) {
	seed, _ := cfg.GetSeed()

	flags := cmd.Flags()
	flags.StringVar(&o.variant, "variant", cfg.Variant, "generator variant (standard|simple)")
	flags.Int64Var(&o.seed, "seed", seed, "random seed; fix it together with --timestamp for reproducible output")
	flags.IntVar(&o.newsLimit, "news-limit", cfg.GetNewsLimit(), "news alert limit per symbol")
	flags.IntVar(&o.maxAlerts, "max-alerts", cfg.GetMaxAlerts(), "maximum number of alerts in the output")
	flags.StringVar(&o.policyFile, "policy", cfg.PolicyFile, "YAML policy file overriding a built-in variant")
	flags.StringVar(&o.timestamp, "timestamp", "", "RFC3339 time used for every timestamp instead of the wall clock")
}

// resolvePolicy loads the policy from file or by variant name. Values from a
// policy file win over environment defaults; explicit flags win over both.
func (o *snapshotOptions) resolvePolicy(cmd *cobra.Command) (*services.Policy, error) {
	var (
		policy *services.Policy
		err    error
	)
	if o.policyFile != "" {
		if cmd.Flags().Changed("variant") {
			logrus.WithFields(logrus.Fields{
				"policy":  o.policyFile,
				"variant": o.variant,
			}).Warn("--variant is ignored when --policy is set; the policy file's base selects the variant")
		}
		policy, err = services.LoadPolicyFile(o.policyFile)
	} else {
		policy, err = services.PolicyFor(o.variant)
	}
	if err != nil {
		return nil, err
	}

	if o.policyFile == "" || cmd.Flags().Changed("news-limit") {
		policy.NewsLimit = o.newsLimit
	}
	if o.policyFile == "" || cmd.Flags().Changed("max-alerts") {
		policy.MaxAlerts = o.maxAlerts
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

func (o *snapshotOptions) clock() (func() time.Time, error) {
	if o.timestamp == "" {
		return time.Now, nil
	}

	pinned, err := time.Parse(time.RFC3339, o.timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid --timestamp: %w", err)
	}
	return func() time.Time { return pinned }, nil
}

// NewRootCmd builds the command tree. stdout receives the JSON document only.
func NewRootCmd(cfg *config.Config, stdout, stderr io.Writer) *cobra.Command {
	opts := &snapshotOptions{}

	rootCmd := &cobra.Command{
		Use:   programName + " symbol1,symbol2,symbol3",
		Short: "Mock Vietnamese stock market snapshots",
		Long: `Generates synthetic quotes, an overview and templated alerts for
Vietnamese tickers and prints them as one JSON document.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := opts.resolvePolicy(cmd)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				writeUsageError(policy, stdout, stderr)
				return errNoSymbols
			}

			clock, err := opts.clock()
			if err != nil {
				return err
			}

			snapshotService := services.NewSnapshotService(opts.seed, clock)
			snapshot := snapshotService.Generate(policy, services.SplitSymbols(args[0]))
			snapshotService.LogMetricsSummary()

			return writeSnapshot(stdout, snapshot)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	opts.register(rootCmd, cfg)

	rootCmd.AddCommand(newServeCmd(cfg), newHealthCheckCmd())
	return rootCmd
}

func writeUsageError(policy *services.Policy, stdout, stderr io.Writer) {
	if policy.UsageErrorStyle == services.UsageErrorJSON {
		fmt.Fprintln(stdout, `{"success": false, "error": "No symbols provided"}`)
		return
	}
	fmt.Fprintf(stderr, "Usage: %s symbol1,symbol2,symbol3\n", programName)
}

// writeSnapshot encodes the snapshot as indented UTF-8 JSON without escaping
// non-ASCII or HTML characters
func writeSnapshot(w io.Writer, snapshot *models.MarketSnapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return shared.WrapError(err, shared.ErrorCategoryProcessing, "ENCODE_FAILED", programName, "writeSnapshot")
	}
	return nil
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	cfg := config.LoadConfig()
	shared.SetupLogging(cfg.LoggingConfig(), os.Stderr)

	return run(NewRootCmd(cfg, os.Stdout, os.Stderr), os.Args[1:])
}

func run(rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errNoSymbols) {
			var serviceErr *shared.ServiceError
			if errors.As(err, &serviceErr) {
				serviceErr.LogError()
			}
			fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		logrus.WithError(err).Debug("Command failed")
		return 1
	}
	return 0
}
