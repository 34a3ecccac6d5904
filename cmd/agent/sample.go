package agent

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tg-collector/pkg/config"
)

func newSampleConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample-config",
		Short: "Print a commented example configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
			return err
		},
	}
}
