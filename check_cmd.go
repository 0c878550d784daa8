package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sdprompt/core"
	"sdprompt/core/validation"
)

func newCheckCmd(cfg *core.Config) *cobra.Command {
	var (
		timeout   time.Duration
		failFast  bool
		envPath   string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the startup checks and exit",
		Long: `Run every startup check, including a reachability probe of the image API
for the openai and azure backends, and print the results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := validation.NewValidationSuite(cfg).
				WithOutput(cmd.OutOrStdout()).
				WithTimeout(timeout).
				WithFailFast(failFast).
				WithEnvPath(envPath).
				WithOutputDir(outputDir).
				Validate(cmd.Context())

			if result.Success {
				return nil
			}
			if err := result.GetFirstError(); err != nil {
				return err
			}
			return errors.New(result.Summary())
		},
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout for network checks")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failed check")
	cmd.Flags().StringVar(&envPath, "env-file", filepath.Join(cwd, ".env"), "environment file to look for")
	cmd.Flags().StringVar(&outputDir, "output-dir", cwd, "directory images will be written to")
	return cmd
}
