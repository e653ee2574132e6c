package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodelearn/nodelearn/client"
)

func newSearchCmd() *cobra.Command {
	var tags []string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search your archived sessions",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := apiClient.Search.Search(context.Background(), args[0], &client.SearchOptions{
				Tags:  tags,
				Limit: limit,
			})
			if err != nil {
				fatal("search", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "SEED", "SCORE", "STARTED"}
				var rows [][]string
				for _, r := range results {
					rows = append(rows, []string{
						r.SessionID,
						r.SeedTopic,
						fmt.Sprintf("%.1f", r.Score),
						r.StartedAt.Format(time.RFC3339),
					})
				}
				formatTable(headers, rows)
				return
			}
			output(results, "")
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Required tag (repeatable, AND filter)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	return cmd
}
