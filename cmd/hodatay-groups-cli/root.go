package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kgellert/hodatay-groups/internal/client"
	"github.com/kgellert/hodatay-groups/internal/profile"
)

const (
	serverEnvKey     = "HODATAY_SERVER"
	profileDirEnvKey = "HODATAY_PROFILE_DIR"
	defaultServer    = "http://localhost:8082"
)

type options struct {
	server     string
	profileDir string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "hodatay-groups-cli",
		Short:         "Terminal client for hodatay group chats",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr(serverEnvKey, defaultServer), "server base URL")
	cmd.PersistentFlags().StringVar(&opts.profileDir, "profile-dir", envOr(profileDirEnvKey, defaultProfileDir()), "local profile directory")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newWhoamiCmd(opts),
		newSetNameCmd(opts),
		newGroupsCmd(opts),
		newMessagesCmd(opts),
		newSendCmd(opts),
		newSendImageCmd(opts),
		newWatchCmd(opts),
	)

	return cmd
}

func (o *options) client() *client.Client {
	return client.New(o.server)
}

func (o *options) withProfile(fn func(*profile.Store) error) error {
	store, err := profile.Open(o.profileDir)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

func (o *options) displayName() (string, error) {
	var name string
	err := o.withProfile(func(store *profile.Store) error {
		var err error
		name, err = store.Name()
		return err
	})
	return name, err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultProfileDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".hodatay-groups"
	}
	return filepath.Join(dir, "hodatay-groups")
}
