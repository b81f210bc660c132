package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	jwt_service "taskmanager/JWT"
)

var genSecretLength int

var genSecretCmd = &cobra.Command{
	Use:   "gen-secret",
	Short: "Print a random value suitable for JWT_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := jwt_service.GenerateSecret(genSecretLength)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), secret)
		return nil
	},
}

func init() {
	genSecretCmd.Flags().IntVar(&genSecretLength, "length", 32, "secret length in characters")
}
