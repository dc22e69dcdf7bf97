package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lacework/code-security-action/internal/clients"
	"github.com/lacework/code-security-action/internal/config"
	"github.com/lacework/code-security-action/internal/logging"
	"github.com/lacework/code-security-action/internal/telemetry"
)

// unreportedError is reported when the main step ended without flushing telemetry
const unreportedError = "Unknown catastrophic error"

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Report telemetry for a main step that exited before doing so",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := newRuntime()
		log, err := logging.New(rt.Debug())
		if err != nil {
			return &failure{err: err}
		}
		defer log.Sync() //nolint:errcheck

		if rt.Getenv(telemetry.ReportedEnv) == "true" {
			log.Info("Telemetry has been reported")
			return nil
		}
		log.Info("Telemetry wasn't previously reported, reporting unknown failure now")

		creds, err := config.LoadCredentials(rt.Getenv, config.DefaultProfilePath())
		if err != nil {
			log.Warnf("Cannot report telemetry: %v", err)
			return nil
		}
		ghctx, err := rt.Context()
		if err != nil {
			log.Warnf("Cannot report telemetry: %v", err)
			return nil
		}

		telem := newCollector(rt, ghctx)
		telem.AddField("error", unreportedError)
		telem.Flush(cmd.Context(), clients.NewLaceworkCLI(clients.NewExecRunner(), creds, log), log, nil)
		return nil
	},
}
