package main

import (
	"github.com/spf13/cobra"

	"github.com/routinely/routinely-server/internal/client"
)

func init() {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User operations",
	}

	var email, displayName, timeZone string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.CreateUserRequest{Email: email, TimeZone: timeZone}
			if displayName != "" {
				req.DisplayName = &displayName
			}
			user, err := newClient().CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
	createCmd.Flags().StringVarP(&email, "email", "e", "", "User email (required)")
	createCmd.Flags().StringVarP(&displayName, "name", "n", "", "Display name")
	createCmd.Flags().StringVar(&timeZone, "tz", "", "IANA time zone (defaults to UTC)")
	_ = createCmd.MarkFlagRequired("email")
	userCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Fetch a user by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := newClient().GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
	userCmd.AddCommand(getCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete a user along with their windows and sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println("deleted")
			return nil
		},
	}
	userCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(userCmd)
}
