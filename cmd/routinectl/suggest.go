package main

import (
	"github.com/spf13/cobra"

	"github.com/routinely/routinely-server/internal/model"
)

func init() {
	var (
		userID        string
		activityType  string
		duration      int
		priority      int
		lookAheadDays int
		limit         int
		offset        int
	)
	suggestCmd := &cobra.Command{
		Use:   "suggest",
		Short: "Request ranked slot suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := newClient().Suggest(cmd.Context(), userID, model.SuggestionRequest{
				Type:            model.ActivityType(activityType),
				DurationMinutes: duration,
				Priority:        priority,
				LookAheadDays:   lookAheadDays,
				Limit:           limit,
				Offset:          offset,
			})
			if err != nil {
				return err
			}
			return printJSON(page)
		},
	}
	suggestCmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	suggestCmd.Flags().StringVar(&activityType, "type", "", "Activity type (required)")
	suggestCmd.Flags().IntVar(&duration, "duration", 0, "Slot duration in minutes (required)")
	suggestCmd.Flags().IntVar(&priority, "priority", 0, "Priority 1..5 (default 3)")
	suggestCmd.Flags().IntVar(&lookAheadDays, "look-ahead", 0, "Horizon in days (server default when omitted)")
	suggestCmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	suggestCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	_ = suggestCmd.MarkFlagRequired("user")
	_ = suggestCmd.MarkFlagRequired("type")
	_ = suggestCmd.MarkFlagRequired("duration")
	rootCmd.AddCommand(suggestCmd)
}
