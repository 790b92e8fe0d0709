package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newValidateCmd validates the effective configuration without starting the server.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate DistroBoard configuration without starting the server.

This command parses the YAML, expands environment variables, applies
DISTROBOARD_* environment and flag overrides, and validates all fields.
It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  distroboard validate -c config.yaml
  distroboard validate --config /etc/distroboard/config.yaml`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := credentialStore(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	endpoint := cfg.DynamoDB.Endpoint
	if endpoint == "" {
		endpoint = "AWS regional endpoint"
	}
	timezone := cfg.Display.Timezone
	if timezone == "" {
		timezone = "Local"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Credentials:   %s\n", st.Path())
	fmt.Fprintf(out, "  DynamoDB:      %s\n", endpoint)
	fmt.Fprintf(out, "  Timezone:      %s\n", timezone)
	fmt.Fprintf(out, "  Auto start:    %t\n", cfg.AutoStart)
	fmt.Fprintf(out, "  Metrics:       %t\n", cfg.MetricsEnabled())

	return nil
}
