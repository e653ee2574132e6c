package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity to the NodeLearn server",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			health, err := apiClient.Health(ctx)
			if err != nil {
				fatal("health check", err)
			}

			fmt.Printf("server:   %s\n", flagURL)
			fmt.Printf("status:   %s\n", health.Status)
			fmt.Printf("version:  %s\n", health.Version)
			fmt.Printf("database: %s\n", health.Database)
			fmt.Printf("provider: %s\n", health.Provider)
			fmt.Printf("uptime:   %.0fs\n", health.UptimeSeconds)
		},
	}
	return cmd
}
