package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-command/pkg/interpret"
	"github.com/ekaya-inc/ekaya-command/pkg/testhelpers"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "env: test\nlog_level: error\nstore:\n  type: sqlite\n  path: " + testhelpers.NewSQLiteRecords(t) + "\nnlp:\n  engine: rules\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInterpretCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := execute(t, "--config", cfgPath, "interpret", "add", "John Smith to citizens, phone 555-123-4567")
	require.NoError(t, err)

	var result interpret.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, interpret.IntentAdd, result.Command.Intent)
	assert.Equal(t, "citizens", result.Command.Module)
	assert.Equal(t, interpret.EntityValue{"John Smith"}, result.Command.Entities["name"])
	assert.Equal(t, interpret.EntityValue{"555-123-4567"}, result.Command.Entities["phone_number"])
}

func TestInterpretCommand_RequiresText(t *testing.T) {
	_, err := execute(t, "--config", writeTestConfig(t), "interpret")
	assert.Error(t, err)
}

func TestLexiconCommand(t *testing.T) {
	out, err := execute(t, "--config", writeTestConfig(t), "lexicon")
	require.NoError(t, err)

	var summary struct {
		Snapshot struct {
			Modules int `json:"modules"`
		} `json:"snapshot"`
		Modules []struct {
			Name    string `json:"name"`
			Columns []struct {
				Name string `json:"name"`
				Role string `json:"role"`
			} `json:"columns"`
		} `json:"modules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))

	columns := make(map[string]map[string]string)
	for _, m := range summary.Modules {
		columns[m.Name] = make(map[string]string)
		for _, c := range m.Columns {
			columns[m.Name][c.Name] = c.Role
		}
	}
	assert.Contains(t, columns, "citizens")
	assert.Contains(t, columns, "incidents")
	assert.Equal(t, "name", columns["citizens"]["name"])
	assert.Equal(t, "address", columns["citizens"]["address"])
	assert.Equal(t, len(summary.Modules), summary.Snapshot.Modules)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "lexicon")
	assert.Error(t, err)
}
