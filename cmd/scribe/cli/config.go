package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/scribe/internal/config"
	"github.com/felixgeelhaar/scribe/internal/credential"
	"github.com/felixgeelhaar/scribe/internal/store"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long:  `Stores a configuration value. Keys holding secrets (api_key, secret, token) are encrypted at rest.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]

		a := openArchive()
		defer a.Close()

		if isSecretKey(key) {
			mgr, err := credential.NewManager()
			if err != nil {
				fail(err)
			}
			value, err = mgr.Encrypt(value)
			if err != nil {
				fail(err)
			}
		}
		if err := a.SetConfig(key, value); err != nil {
			fail(err)
		}
		fmt.Printf("Configuration saved: %s\n", key)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		a := openArchive()
		defer a.Close()

		val, err := a.GetConfig(key)
		if err != nil {
			fail(err)
		}
		if val == "" {
			fmt.Println("(not set)")
			return
		}
		if credential.IsEncrypted(val) {
			mgr, err := credential.NewManager()
			if err != nil {
				fail(err)
			}
			plain, err := mgr.Decrypt(val)
			if err != nil {
				fail(err)
			}
			fmt.Println(credential.MaskSecret(plain))
			return
		}
		fmt.Println(val)
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)
}

func openArchive() *store.Archive {
	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	a, err := store.NewArchive(cfg.ArchivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
		os.Exit(1)
	}
	return a
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range []string{"api_key", "secret", "token"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
