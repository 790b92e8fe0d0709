package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/distroboard/internal/logging"
	"github.com/jpalmerr/distroboard/internal/session"
	"github.com/jpalmerr/distroboard/internal/store"
)

// newBlockCmd toggles blocking for one domain.
func newBlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block enable|disable",
		Short: "Enable or disable blocking for a domain",
		Long: `Enable or disable blocking for one domain using the stored credentials.

Enabling blocking sets distro_open to false on the domain's item; disabling
sets it to true. The command asks for confirmation unless --yes is given.

Example:
  distroboard block enable --domain cdn1.example.com
  distroboard block disable --domain cdn1.example.com --yes`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{session.ActionEnable, session.ActionDisable},
		RunE:      runBlock,
	}

	cmd.Flags().String("domain", "", "domain of the endpoint (required)")
	_ = cmd.MarkFlagRequired("domain")
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runBlock(cmd *cobra.Command, args []string) error {
	action := args[0]
	if action != session.ActionEnable && action != session.ActionDisable {
		return fmt.Errorf("unknown action %q (expected enable or disable)", action)
	}
	domain, _ := cmd.Flags().GetString("domain")
	yes, _ := cmd.Flags().GetBool("yes")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	// fail early with a useful message; the session would only log it
	if _, err := storedCredentials(cfg); err != nil {
		return err
	}
	creds, err := credentialStore(cfg)
	if err != nil {
		return err
	}

	sess, err := session.New(cmd.Context(), session.Config{
		Credentials: creds,
		Sources:     newSources(cfg),
		View:        store.NewMemoryStore(session.InitialView()),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	var confirmer session.Confirmer = promptConfirmer{
		in:  bufio.NewReader(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}
	if yes {
		confirmer = session.ConfirmFunc(func(string) bool { return true })
	}

	rec := store.Record{Domain: domain}
	var outcome session.Outcome
	if action == session.ActionEnable {
		outcome = sess.RequestEnableBlocking(cmd.Context(), rec, confirmer)
	} else {
		outcome = sess.RequestDisableBlocking(cmd.Context(), rec, confirmer)
	}

	switch outcome {
	case session.OutcomeApplied:
		fmt.Fprintf(cmd.OutOrStdout(), "%s blocking for %s: applied\n", action, domain)
		return nil
	case session.OutcomeDeclined:
		fmt.Fprintln(cmd.OutOrStdout(), "aborted")
		return nil
	default:
		return fmt.Errorf("%s blocking for %s failed", action, domain)
	}
}

// promptConfirmer asks on out and reads a y/N answer from in.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
