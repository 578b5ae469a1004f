package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/nightscout-tidepool-sync/internal/application"
	"github.com/spf13/cobra"
)

func newAuthCmd(loader *appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Tidepool credentials",
	}

	cmd.AddCommand(newAuthSetPasswordCmd(loader))

	return cmd
}

func newAuthSetPasswordCmd(loader *appLoader) *cobra.Command {
	var username string
	var secretKey string
	var password string
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Store the Tidepool password in pass, or in the file store when pass is unavailable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}

			if username == "" {
				username = app.cfg.Tidepool.Username
			}
			if secretKey == "" {
				secretKey = app.cfg.Tidepool.PasswordRef
			}
			if fromStdin {
				password, err = readPassword(cmd)
				if err != nil {
					return err
				}
			}

			key, err := application.SetPassword(cmd.Context(), app.secretStore, application.SetPasswordCommand{
				Username:  username,
				Password:  password,
				SecretKey: secretKey,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored password for %s under %s\n", strings.TrimSpace(username), key)
			return err
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Tidepool username (defaults to tidepool.username)")
	cmd.Flags().StringVar(&secretKey, "key", "", "Secret-store key (defaults to tidepool.password_ref or nts/tidepool/<username>/password)")
	cmd.Flags().StringVar(&password, "password", "", "Password value")
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "Read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	cmd.MarkFlagsOneRequired("password", "password-stdin")

	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
