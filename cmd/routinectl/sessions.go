package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/routinely/routinely-server/internal/client"
)

// conflictHint prints the blocking sessions before surfacing a 409 so the
// user can see what is in the way.
func conflictHint(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.IsConflict() {
		_ = printJSON(apiErr.Conflicts)
		return fmt.Errorf("%s (rerun with --allow-conflicts to book anyway)", apiErr.Message)
	}
	return err
}

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Session operations",
	}

	var (
		createUser     string
		title          string
		sessionType    string
		startStr       string
		endStr         string
		description    string
		fromSuggestion string
		priority       int
		allowConflicts bool
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, startStr)
			if err != nil {
				return fmt.Errorf("--start must be RFC3339: %w", err)
			}
			end, err := time.Parse(time.RFC3339, endStr)
			if err != nil {
				return fmt.Errorf("--end must be RFC3339: %w", err)
			}
			req := client.CreateSessionRequest{
				Title:          title,
				Type:           sessionType,
				StartTime:      start,
				EndTime:        end,
				Priority:       priority,
				AllowConflicts: allowConflicts,
			}
			if description != "" {
				req.Description = &description
			}
			if fromSuggestion != "" {
				req.FromSuggestionID = &fromSuggestion
			}
			session, err := newClient().CreateSession(cmd.Context(), createUser, req)
			if err != nil {
				return conflictHint(err)
			}
			return printJSON(session)
		},
	}
	createCmd.Flags().StringVarP(&createUser, "user", "u", "", "User ID (required)")
	createCmd.Flags().StringVar(&title, "title", "", "Session title (defaults per activity type)")
	createCmd.Flags().StringVar(&sessionType, "type", "", "Activity type (required)")
	createCmd.Flags().StringVar(&startStr, "start", "", "Start time, RFC3339 (required)")
	createCmd.Flags().StringVar(&endStr, "end", "", "End time, RFC3339 (required)")
	createCmd.Flags().StringVar(&description, "description", "", "Free-form description")
	createCmd.Flags().StringVar(&fromSuggestion, "from-suggestion", "", "Suggestion ID this booking came from")
	createCmd.Flags().IntVar(&priority, "priority", 0, "Priority 1..5 (default 3)")
	createCmd.Flags().BoolVar(&allowConflicts, "allow-conflicts", false, "Book even when the slot overlaps existing sessions")
	_ = createCmd.MarkFlagRequired("user")
	_ = createCmd.MarkFlagRequired("type")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("end")
	sessionCmd.AddCommand(createCmd)

	var getUser string
	getCmd := &cobra.Command{
		Use:   "get SESSION_ID",
		Short: "Fetch a session by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newClient().GetSession(cmd.Context(), getUser, args[0])
			if err != nil {
				return err
			}
			return printJSON(session)
		},
	}
	getCmd.Flags().StringVarP(&getUser, "user", "u", "", "User ID (required)")
	_ = getCmd.MarkFlagRequired("user")
	sessionCmd.AddCommand(getCmd)

	var (
		listUser       string
		fromStr, toStr string
		includeDeleted bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts client.ListSessionsOptions
			if fromStr != "" {
				from, err := time.Parse(time.RFC3339, fromStr)
				if err != nil {
					return fmt.Errorf("--from must be RFC3339: %w", err)
				}
				opts.From = &from
			}
			if toStr != "" {
				to, err := time.Parse(time.RFC3339, toStr)
				if err != nil {
					return fmt.Errorf("--to must be RFC3339: %w", err)
				}
				opts.To = &to
			}
			opts.IncludeDeleted = includeDeleted
			sessions, err := newClient().ListSessions(cmd.Context(), listUser, opts)
			if err != nil {
				return err
			}
			return printJSON(sessions)
		},
	}
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "User ID (required)")
	listCmd.Flags().StringVar(&fromStr, "from", "", "Only sessions ending after this RFC3339 time")
	listCmd.Flags().StringVar(&toStr, "to", "", "Only sessions starting before this RFC3339 time")
	listCmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "Include soft-deleted sessions")
	_ = listCmd.MarkFlagRequired("user")
	sessionCmd.AddCommand(listCmd)

	var (
		completeUser string
		completedVal bool
	)
	completeCmd := &cobra.Command{
		Use:   "complete SESSION_ID",
		Short: "Mark a session completed (or flip its completion state)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var completed *bool
			if cmd.Flags().Changed("completed") {
				completed = &completedVal
			}
			session, err := newClient().SetCompleted(cmd.Context(), completeUser, args[0], completed)
			if err != nil {
				return err
			}
			return printJSON(session)
		},
	}
	completeCmd.Flags().StringVarP(&completeUser, "user", "u", "", "User ID (required)")
	completeCmd.Flags().BoolVar(&completedVal, "completed", true, "Explicit completion state; omit to flip")
	_ = completeCmd.MarkFlagRequired("user")
	sessionCmd.AddCommand(completeCmd)

	var deleteUser string
	deleteCmd := &cobra.Command{
		Use:   "delete SESSION_ID",
		Short: "Soft-delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().DeleteSession(cmd.Context(), deleteUser, args[0]); err != nil {
				return err
			}
			cmd.Println("deleted")
			return nil
		},
	}
	deleteCmd.Flags().StringVarP(&deleteUser, "user", "u", "", "User ID (required)")
	_ = deleteCmd.MarkFlagRequired("user")
	sessionCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(sessionCmd)
}
