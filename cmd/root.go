package cmd

import (
	"sync"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd(wireApp).Execute()
}

// appLoader wires the app on first use so commands that need no config,
// such as version, work with a broken one.
type appLoader struct {
	wire       wireFunc
	configFile string

	once sync.Once
	app  *app
	err  error
}

func (l *appLoader) load(cmd *cobra.Command) (*app, error) {
	l.once.Do(func() {
		l.app, l.err = l.wire(l.configFile, cmd.ErrOrStderr())
	})
	return l.app, l.err
}

func (l *appLoader) close() {
	if l.app != nil {
		l.app.close()
	}
}

func newRootCmd(wire wireFunc) *cobra.Command {
	loader := &appLoader{wire: wire}

	rootCmd := &cobra.Command{
		Use:           "nts",
		Short:         "Nightscout to Tidepool sync (nts)",
		Long:          "nts reads glucose entries, treatments and profiles from a Nightscout database, converts them to Tidepool records, repairs basal gaps and uploads them to a Tidepool data set.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			loader.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&loader.configFile, "config", "", "Config file (default ~/.nts/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAuthCmd(loader),
		newConnectCmd(loader),
		newSyncCmd(loader),
		newRunCmd(loader),
		newStatusCmd(loader),
	)

	return rootCmd
}
