package cmd

import (
	"fmt"

	cfgpkg "github.com/KaramelBytes/askcsv/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set askcsv configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		red := c.Redacted()
		b, err := yaml.Marshal(&red)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		for _, p := range []string{c.PrimaryProvider, c.SecondaryProvider} {
			for _, env := range c.MissingCredentials(p) {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s is not set (needed by %s)\n", env, p)
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		switch key {
		case "primary_provider", "secondary_provider":
			if !knownProvider(val) {
				return fmt.Errorf("invalid %s: %s (use one of %v)", key, val, providerNames())
			}
		case "cluster_k":
			var k int
			if _, err := fmt.Sscan(val, &k); err != nil || k < 1 {
				return fmt.Errorf("invalid int for cluster_k: %v", val)
			}
		}
		if err := c.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
