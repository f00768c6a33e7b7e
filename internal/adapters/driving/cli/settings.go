package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change persisted settings, including per-source credentials
(finders.<name>.api_key), shared request headers and cookies
(headers.<name>, cookies.<name>) and per-source tag aliases
(aliases.<finder>.<tag>).`,
	RunE: runSettingsList,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all persisted settings",
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsUnset,
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	keys := configStore.Keys()
	if len(keys) == 0 {
		cmd.Println("No settings stored.")
		return nil
	}

	for _, key := range keys {
		cmd.Printf("%s = %s\n", key, displayValue(key, configStore.GetString(key)))
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	value, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("setting %q is not set", args[0])
	}
	cmd.Printf("%v\n", value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	if err := configStore.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsUnset(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	if err := configStore.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove setting: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

// displayValue masks credential values in listings.
func displayValue(key, value string) string {
	if !strings.Contains(key, "api_key") && !strings.Contains(key, "cookie") {
		return value
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
