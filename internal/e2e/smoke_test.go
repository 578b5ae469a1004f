package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeConfigFixture(home))

	stdout, stderr, err := runNTS(t, binaryPath, home, "auth", "set-password", "--password", "s3cret")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Stored password for user@example.com")

	stdout, stderr, err = runNTS(t, binaryPath, home, "status")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Account: user@example.com @ api.tidepool.org")
	assert.Contains(t, stdout, "No sync pass recorded yet.")

	stdout, stderr, err = runNTS(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "dev\n", stdout)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "nts-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/nts")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build nts binary: %s", string(output))
	return binaryPath
}

func runNTS(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"NTS_SECRETS_PASS_DIR="+filepath.Join(home, "no-password-store"),
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeConfigFixture(home string) error {
	configDir := filepath.Join(home, ".nts")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	config := `[tidepool]
api_host = "api.tidepool.org"
username = "user@example.com"

[nightscout]
mongo_uri = "mongodb://localhost:27017/nightscout"
`
	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(config), 0o600)
}
