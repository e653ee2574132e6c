package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCmd() *cobra.Command {
	var url, owner, profile string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the CLI config file (~/.nodelearn/config.yaml)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			home, err := os.UserHomeDir()
			if err != nil {
				fatal("resolve home directory", err)
			}
			dir := filepath.Join(home, ".nodelearn")
			if err := os.MkdirAll(dir, 0o700); err != nil {
				fatal("create config directory", err)
			}

			cfgPath := filepath.Join(dir, "config.yaml")
			cfg := configFile{}
			if data, err := os.ReadFile(cfgPath); err == nil {
				_ = yaml.Unmarshal(data, &cfg)
			}
			if cfg.Profiles == nil {
				cfg.Profiles = make(map[string]configProfile)
			}
			cfg.Profiles[profile] = configProfile{URL: url, OwnerID: owner}
			if cfg.ActiveProfile == "" {
				cfg.ActiveProfile = profile
			}

			data, err := yaml.Marshal(&cfg)
			if err != nil {
				fatal("encode config", err)
			}
			if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
				fatal("write config", err)
			}
			fmt.Printf("Wrote profile %q to %s\n", profile, cfgPath)
		},
	}
	cmd.Flags().StringVar(&url, "url", defaultURL, "Server URL for the profile")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner identity for the profile")
	cmd.Flags().StringVar(&profile, "profile", "default", "Profile name")
	return cmd
}
