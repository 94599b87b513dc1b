package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/juscheck/internal/credential"
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage secrets stored in the OS keyring",
		Long: "Manage secrets stored in the OS keyring.\n\nKnown names: " +
			strings.Join(credential.Keys, ", "),
	}
	cmd.AddCommand(newCredentialSetCmd(), newCredentialDeleteCmd())
	return cmd
}

func newCredentialSetCmd() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !slices.Contains(credential.Keys, name) {
				return codeError(3, "unknown credential %q (known: %s)", name, strings.Join(credential.Keys, ", "))
			}
			if value == "" {
				err := huh.NewInput().
					Title(name).
					EchoMode(huh.EchoModePassword).
					Value(&value).
					Validate(validateRequired(name)).
					Run()
				if err != nil {
					return err
				}
			}

			store, err := credential.Open()
			if err != nil {
				return err
			}
			if err := store.Set(name, value); err != nil {
				return err
			}
			fmt.Printf("Stored %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "secret value (prompted when omitted)")
	return cmd
}

func newCredentialDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credential.Open()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
