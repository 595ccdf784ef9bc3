package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/factory"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestModelsCommand(t *testing.T) {
	out, err := execute(t, "models")
	require.NoError(t, err)

	assert.Contains(t, out, "| camera | indi, simulator |")
	assert.Contains(t, out, "| mount  | indi, simulator |")
}

func TestTargetCommand(t *testing.T) {
	base := t.TempDir()
	targets := filepath.Join(base, "resources", "conf_files", "targets")
	require.NoError(t, os.MkdirAll(targets, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(targets, "targets.yaml"), []byte(`
- name: Polaris Field
  position: 00h00m00s +89d59m59s
  priority: 10
  exp_time: 120
`), 0o644))

	path := writeConfig(t, fmt.Sprintf(`
location: {latitude: 19.54, longitude: -155.58}
mount: {model: simulator}
base_dir: %s
targets_file: targets.yaml
indi_server: {binary: definitely-not-indiserver}
`, base))

	out, err := execute(t, "target", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Polaris Field")
	assert.Contains(t, out, "120s")
}

func TestTargetCommandWithoutScheduler(t *testing.T) {
	path := writeConfig(t, `
location: {latitude: 19.54, longitude: -155.58}
mount: {model: simulator}
`)

	_, err := execute(t, "target", "--config", path)
	assert.True(t, errors.Is(err, lib.ErrNoScheduler))
}

func TestConfigFromEnv(t *testing.T) {
	path := writeConfig(t, `
location: {latitude: 19.54, longitude: -155.58}
mount: {model: simulator}
`)
	t.Setenv(configEnv, path)

	out, err := execute(t, "check-config")
	require.NoError(t, err)
	assert.Contains(t, out, "Nameless Location")
}

func TestMissingConfig(t *testing.T) {
	t.Setenv(configEnv, "")

	_, err := execute(t, "check-config")
	assert.ErrorContains(t, err, configEnv)
}

func TestCheckConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
location: {name: Test Site, latitude: 19.54, longitude: -155.58, horizon: 30}
mount: {model: simulator}
cameras:
  - {model: simulator, name: cam00}
  - {model: bogus, name: cam01}
base_dir: /nonexistent
targets_file: targets.yaml
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, checkConfig(&out, cfg, factory.NewDefault()))

	s := out.String()
	assert.Contains(t, s, "Test Site")
	assert.Contains(t, s, "cam01 bogus (UNKNOWN, will be skipped)")
	assert.Contains(t, s, "(MISSING, no scheduler)")
	assert.Contains(t, s, "not configured")
}

func TestCheckConfigFatal(t *testing.T) {
	cfg, err := config.Parse([]byte(`
location: {latitude: 19.54, longitude: -155.58}
mount: {model: unknown_model_xyz}
`))
	require.NoError(t, err)
	err = checkConfig(&bytes.Buffer{}, cfg, factory.NewDefault())
	assert.True(t, errors.Is(err, lib.ErrUnknownModel))

	cfg.Mount.Model = "simulator"
	cfg.IndiServer = &config.IndiServerConfig{Binary: "definitely-not-indiserver"}
	var out bytes.Buffer
	err = checkConfig(&out, cfg, factory.NewDefault())
	assert.True(t, errors.Is(err, lib.ErrStartup))
	assert.Contains(t, out.String(), "(NOT FOUND)")

	cfg.Site = nil
	err = checkConfig(&bytes.Buffer{}, cfg, factory.NewDefault())
	assert.True(t, errors.Is(err, lib.ErrConfiguration))
}

func TestPrintTable(t *testing.T) {
	var out bytes.Buffer
	printTable(&out, []string{"A", "LONGER"}, [][]string{{"value", "x"}, {"v"}})

	want := strings.Join([]string{
		"+-------+--------+",
		"| A     | LONGER |",
		"+-------+--------+",
		"| value | x      |",
		"| v     |        |",
		"+-------+--------+",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}
