package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/satchelhq/satchel/pkg/api"
	"github.com/satchelhq/satchel/pkg/config"
	"github.com/satchelhq/satchel/pkg/connection"
	"github.com/satchelhq/satchel/pkg/keychain"
	"github.com/satchelhq/satchel/pkg/logger"
	"github.com/satchelhq/satchel/pkg/session"
)

// Version is set at build time via ldflags
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "satchel",
	Short: "Satchel - companion client for a remote coding-assistant server",
	Long: `Satchel connects to a remote coding-assistant server, lists its
projects and chat sessions, and follows assistant responses live over the
server's event stream.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.satchel/settings.yaml)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("satchel %s\n", Version)
	},
}

// app bundles the wired components every command needs.
type app struct {
	client *api.Client
	conn   *connection.Manager
	store  *session.Store
}

func newApp() (*app, error) {
	if err := config.Init(cfgFile); err != nil {
		return nil, err
	}
	if err := logger.Init(); err != nil {
		return nil, err
	}

	cfg := config.Get()
	kc := newKeychain(cfg.Server.Username)

	client := api.NewClient(cfg.Server.URL, cfg.Server.Username, kc)
	conn := connection.NewManager(client, kc, cfg.Server.URL, cfg.Server.Username)
	store := session.NewStore(client)
	store.SetSessionLimit(cfg.Server.SessionLimit)

	return &app{client: client, conn: conn, store: store}, nil
}

// newKeychain picks the secure-storage backend for this platform. Platforms
// without a secret service get the no-op backend: credentials simply read
// as unset there.
func newKeychain(account string) keychain.Keychain {
	switch runtime.GOOS {
	case "darwin", "linux", "windows":
		return keychain.NewSystem(account)
	default:
		return keychain.Noop{}
	}
}
