package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve a single query and print the result as JSON",
	Long:  "Runs one resolution against the live collaborators: a 14-digit CNPJ goes straight to the registry, a 10-11 digit number is treated as a phone, anything else as a keyword search.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		res := a.resolver.Resolve(cmd.Context(), query)

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal resolution")
		}
		fmt.Println(string(out))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
