package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodelearn/nodelearn/client"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse persisted exploration sessions",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var sort string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your persisted sessions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			sessions, err := apiClient.History.List(context.Background(), &client.HistoryListOptions{
				Sort:   sort,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				fatal("list history", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "SEED", "TOPICS", "DWELL", "ENDED"}
				var rows [][]string
				for _, s := range sessions {
					rows = append(rows, []string{
						s.ID,
						s.SeedTopic,
						fmt.Sprintf("%d", s.TopicCount),
						(time.Duration(s.TotalDwellMs) * time.Millisecond).String(),
						s.EndedAt.Format(time.RFC3339),
					})
				}
				formatTable(headers, rows)
				return
			}
			output(sessions, "")
		},
	}
	cmd.Flags().StringVar(&sort, "sort", "newest", "Sort: newest|oldest|most_topics|longest_dwell")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Pagination offset")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one persisted session with its full tree",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			session, err := apiClient.History.Get(context.Background(), args[0])
			if err != nil {
				fatal("get session", err)
			}
			if flagFmt == "table" {
				printTree(&session.Tree)
				return
			}
			output(session, session.ID)
		},
	}
	return cmd
}
