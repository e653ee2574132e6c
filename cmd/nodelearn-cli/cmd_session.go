package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodelearn/nodelearn/client"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage live exploration sessions",
	}
	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionSeedCmd())
	cmd.AddCommand(newSessionTreeCmd())
	cmd.AddCommand(newSessionExpandCmd())
	cmd.AddCommand(newSessionPruneCmd())
	cmd.AddCommand(newSessionEndCmd())
	return cmd
}

func newSessionStartCmd() *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "start <seed-topic>",
		Short: "Open a session rooted at the seed topic",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			info, err := apiClient.Sessions.Start(context.Background(), &client.StartSessionRequest{
				SeedTopic: args[0],
				Tags:      tags,
			})
			if err != nil {
				fatal("start session", err)
			}
			output(info, info.ID)
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to attach (repeatable)")
	return cmd
}

func newSessionSeedCmd() *cobra.Command {
	var mimeType string
	var tags []string
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Open a session seeded from a text or markdown document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fatal("read document", err)
			}
			if mimeType == "" {
				mimeType = "text/plain"
				if strings.HasSuffix(args[0], ".md") {
					mimeType = "text/markdown"
				}
			}
			resp, err := apiClient.Sessions.Seed(context.Background(), &client.SeedSessionRequest{
				Content:  string(data),
				MimeType: mimeType,
				Tags:     tags,
			})
			if err != nil {
				fatal("seed session", err)
			}
			output(resp, resp.Session.ID)
		},
	}
	cmd.Flags().StringVar(&mimeType, "mime", "", "Document MIME type (default from extension)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to attach (repeatable)")
	return cmd
}

func newSessionTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <session-id>",
		Short: "Print the current knowledge tree",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			snap, err := apiClient.Sessions.Snapshot(context.Background(), args[0])
			if err != nil {
				fatal("fetch snapshot", err)
			}
			if flagFmt == "table" {
				printTree(snap)
				return
			}
			output(snap, snap.RootID)
		},
	}
	return cmd
}

func newSessionExpandCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "expand <session-id> <node-id>",
		Short: "Expand a node with AI-suggested related topics",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			result, err := apiClient.Sessions.Expand(context.Background(), args[0], args[1], depth)
			if err != nil {
				fatal("expand node", err)
			}
			if flagFmt == "table" {
				headers := []string{"TOPIC"}
				var rows [][]string
				for _, tp := range result.Accepted {
					rows = append(rows, []string{tp.Display})
				}
				formatTable(headers, rows)
				return
			}
			output(result, result.NodeID)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "Suggestion depth (1 narrow, 2 broad)")
	return cmd
}

func newSessionPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune <session-id> <node-id>",
		Short: "Remove a node and its subtree",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			removed, err := apiClient.Sessions.RemoveNode(context.Background(), args[0], args[1])
			if err != nil {
				fatal("prune node", err)
			}
			output(map[string]any{"removed": removed}, fmt.Sprintf("%d", len(removed)))
		},
	}
	return cmd
}

func newSessionEndCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "end <session-id>",
		Short: "End and persist a session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			meta, err := apiClient.Sessions.End(context.Background(), args[0], 0)
			if err != nil {
				fatal("end session", err)
			}
			output(meta, meta.ID)
		},
	}
	return cmd
}

// printTree renders the snapshot as an indented outline, root first.
func printTree(snap *client.TreeSnapshot) {
	nodes := make(map[string]client.SnapshotNode, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes[n.ID] = n
	}

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := nodes[id]
		if !ok {
			return
		}
		marker := ""
		if len(n.CrossLinks) > 0 {
			marker = fmt.Sprintf("  (links: %d)", len(n.CrossLinks))
		}
		fmt.Printf("%s%s%s\n", strings.Repeat("  ", depth), n.Topic.Display, marker)
		for _, childID := range n.ChildIDs {
			walk(childID, depth+1)
		}
	}
	walk(snap.RootID, 0)
}
