package main

import (
	"github.com/spf13/cobra"

	"github.com/routinely/routinely-server/internal/client"
)

func init() {
	availabilityCmd := &cobra.Command{
		Use:   "availability",
		Short: "Weekly availability window operations",
	}

	var addUser, day, start, end string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a weekly availability window",
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := newClient().AddWindow(cmd.Context(), addUser, client.AddWindowRequest{
				DayOfWeek: day,
				StartTime: start,
				EndTime:   end,
			})
			if err != nil {
				return err
			}
			return printJSON(window)
		},
	}
	addCmd.Flags().StringVarP(&addUser, "user", "u", "", "User ID (required)")
	addCmd.Flags().StringVarP(&day, "day", "d", "", "Weekday code MON..SUN (required)")
	addCmd.Flags().StringVar(&start, "start", "", `Window start as "HH:MM" (required)`)
	addCmd.Flags().StringVar(&end, "end", "", `Window end as "HH:MM" (required)`)
	_ = addCmd.MarkFlagRequired("user")
	_ = addCmd.MarkFlagRequired("day")
	_ = addCmd.MarkFlagRequired("start")
	_ = addCmd.MarkFlagRequired("end")
	availabilityCmd.AddCommand(addCmd)

	var listUser string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's availability windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			windows, err := newClient().ListWindows(cmd.Context(), listUser)
			if err != nil {
				return err
			}
			return printJSON(windows)
		},
	}
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "User ID (required)")
	_ = listCmd.MarkFlagRequired("user")
	availabilityCmd.AddCommand(listCmd)

	var removeUser string
	removeCmd := &cobra.Command{
		Use:   "remove WINDOW_ID",
		Short: "Remove an availability window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().RemoveWindow(cmd.Context(), removeUser, args[0]); err != nil {
				return err
			}
			cmd.Println("removed")
			return nil
		},
	}
	removeCmd.Flags().StringVarP(&removeUser, "user", "u", "", "User ID (required)")
	_ = removeCmd.MarkFlagRequired("user")
	availabilityCmd.AddCommand(removeCmd)

	rootCmd.AddCommand(availabilityCmd)
}
