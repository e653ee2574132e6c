package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nodelearn/nodelearn/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

var (
	apiClient *client.Client
	flagURL   string
	flagOwner string
	flagFmt   string
)

const defaultURL = "http://localhost:3040"

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("nodelearn version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("nodelearn version %s-dev", version)
}

type configFile struct {
	// Flat format
	URL     string `yaml:"url"`
	OwnerID string `yaml:"owner_id"`
	// Profile format
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL     string `yaml:"url"`
	OwnerID string `yaml:"owner_id"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "nodelearn",
		Short:   "NodeLearn CLI — explore topics as a growing knowledge tree",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagOwner != "" {
				opts = append(opts, client.WithOwnerID(flagOwner))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "NodeLearn server URL (env: NODELEARN_URL)")
	rootCmd.PersistentFlags().StringVar(&flagOwner, "owner", "", "Owner identity (env: NODELEARN_OWNER)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	initCmd := newInitCmd()
	initCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newSearchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL == defaultURL {
		if v := os.Getenv("NODELEARN_URL"); v != "" {
			flagURL = v
		}
	}
	if flagOwner == "" {
		flagOwner = os.Getenv("NODELEARN_OWNER")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	cfgPath := filepath.Join(home, ".nodelearn", "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}
	resolvedURL := cfg.URL
	resolvedOwner := cfg.OwnerID
	if cfg.Profiles != nil {
		profileName := cfg.ActiveProfile
		if profileName == "" {
			profileName = "default"
		}
		if p, ok := cfg.Profiles[profileName]; ok {
			if p.URL != "" {
				resolvedURL = p.URL
			}
			if p.OwnerID != "" {
				resolvedOwner = p.OwnerID
			}
		}
	}
	if flagURL == defaultURL && resolvedURL != "" {
		flagURL = resolvedURL
	}
	if flagOwner == "" && resolvedOwner != "" {
		flagOwner = resolvedOwner
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
