package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/yura4350/jobtrack/app/codec"
	"github.com/yura4350/jobtrack/app/persistence"
	"github.com/yura4350/jobtrack/app/store"
)

// runCmd parses args and runs the command with the given stdin, returns stdout
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	opts = options{}
	command, err := parseOpts(args)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	err = run(context.Background(), command, strings.NewReader(stdin), out)
	return out.String(), err
}

func Test_parseOpts(t *testing.T) {
	opts = options{}
	command, err := parseOpts([]string{"--storage=files", "--dir=/tmp/jt", "clear", "--kind=jobs", "-y"})
	require.NoError(t, err)
	assert.Equal(t, "clear", command)
	assert.Equal(t, "files", opts.Storage)
	assert.Equal(t, "/tmp/jt", opts.Dir)
	assert.Equal(t, "jobs", opts.Clear.Kind)
	assert.True(t, opts.Clear.Yes)
	assert.Equal(t, "1/2/2006", opts.DateFormat)

	opts = options{}
	command, err = parseOpts([]string{"server", "--web.address=:9090", "--web.devtools=http://localhost:9222"})
	require.NoError(t, err)
	assert.Equal(t, "server", command)
	assert.Equal(t, ":9090", opts.Server.Web.Address)
	assert.Equal(t, "http://localhost:9222", opts.Server.Web.DevTools)
	assert.Equal(t, "sqlite", opts.Storage)

	opts = options{}
	_, err = parseOpts([]string{"clear"})
	require.Error(t, err, "kind is required")

	opts = options{}
	_, err = parseOpts([]string{"--storage=redis", "list"})
	require.Error(t, err)

	opts = options{}
	_, err = parseOpts([]string{})
	require.Error(t, err, "command is required")
}

func Test_parseOptsEnv(t *testing.T) {
	t.Setenv("JOBTRACK_STORAGE", "files")
	t.Setenv("JOBTRACK_WEB_ADDRESS", "0.0.0.0:8000")
	opts = options{}
	_, err := parseOpts([]string{"server"})
	require.NoError(t, err)
	assert.Equal(t, "files", opts.Storage)
	assert.Equal(t, "0.0.0.0:8000", opts.Server.Web.Address)
}

func Test_addAndList(t *testing.T) {
	dir := t.TempDir()
	storage := []string{"--storage=files", "--dir=" + dir}

	out, err := runCmd(t, "", append(storage, "add-job", "--title=Go Dev", "--url=https://acme.com/jobs/1")...)
	require.NoError(t, err)
	assert.Equal(t, "saved job \"Go Dev\" https://acme.com/jobs/1\n", out)

	_, err = runCmd(t, "", append(storage, "add-job", "--url=https://acme.com/jobs/2")...)
	require.NoError(t, err)

	out, err = runCmd(t, "", append(storage, "add-recruiter", "--name=Jane", "--url=https://linkedin.com/in/jane")...)
	require.NoError(t, err)
	assert.Contains(t, out, `saved recruiter "Jane" (Unknown Company)`)

	_, err = runCmd(t, "", append(storage, "add-job", "--title=no url")...)
	require.ErrorIs(t, err, store.ErrJobURLRequired)

	out, err = runCmd(t, "", append(storage, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Jobs (2)")
	assert.Contains(t, out, "Saved Recruiters (1)")
	assert.Less(t, strings.Index(out, "Untitled Job"), strings.Index(out, "Go Dev"), "newest first")

	out, err = runCmd(t, "", append(storage, "list", "--kind=recruiters")...)
	require.NoError(t, err)
	assert.NotContains(t, out, "Saved Jobs")
	assert.Contains(t, out, "Jane")

	slots, err := persistence.NewFiles(dir)
	require.NoError(t, err)
	raw, ok, err := slots.Get(context.Background(), store.JobsKey)
	require.NoError(t, err)
	require.True(t, ok)
	jobs, err := store.Unmarshal[store.Job](raw)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "https://acme.com/jobs/2", jobs[0].URL)
}

func Test_clear(t *testing.T) {
	dir := t.TempDir()
	storage := []string{"--storage=files", "--dir=" + dir}
	for _, n := range []string{"a", "b", "c"} {
		_, err := runCmd(t, "", append(storage, "add-recruiter", "--name="+n, "--url=https://x.com/"+n)...)
		require.NoError(t, err)
	}

	out, err := runCmd(t, "n\n", append(storage, "clear", "--kind=recruiters")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to delete all saved recruiters? [y/N]: ")
	assert.Contains(t, out, "nothing deleted")

	out, err = runCmd(t, "", append(storage, "list", "--kind=recruiters")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Recruiters (3)")

	out, err = runCmd(t, "yes\n", append(storage, "clear", "--kind=recruiters")...)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted all saved recruiters")

	out, err = runCmd(t, "", append(storage, "list", "--kind=recruiters")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Recruiters (0)")

	out, err = runCmd(t, "", append(storage, "clear", "--kind=jobs", "--yes")...)
	require.NoError(t, err)
	assert.Equal(t, "deleted all saved job postings\n", out)
}

func Test_listBackups(t *testing.T) {
	dir := t.TempDir()
	slots, err := persistence.NewFiles(dir)
	require.NoError(t, err)
	require.NoError(t, slots.Set(context.Background(), store.JobsKey, "{broken"))
	require.NoError(t, slots.Close())

	out, err := runCmd(t, "", "--storage=files", "--dir="+dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Jobs (0)")
	assert.Contains(t, out, "Unreadable data kept in: savedJobs.corrupt\n")
}

func Test_export(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "test.db")
	storage := []string{"--db=" + dbFile}

	_, err := runCmd(t, "", append(storage, "add-job", "--title=<b>Go</b> & Rust", "--url=https://acme.com/?a=1&b=2")...)
	require.NoError(t, err)
	_, err = runCmd(t, "", append(storage, "add-recruiter", "--name=Jane", "--company=Acme", "--url=https://in.com/jane")...)
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		out, err := runCmd(t, "", append(storage, "export")...)
		require.NoError(t, err)
		var doc codec.Document
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		require.Len(t, doc.Jobs, 1)
		assert.Equal(t, "<b>Go</b> & Rust", doc.Jobs[0].Title)
		require.Len(t, doc.Recruiters, 1)
		assert.Equal(t, "Acme", doc.Recruiters[0].Company)
	})

	t.Run("yaml to file", func(t *testing.T) {
		outFile := filepath.Join(dir, "export.yml")
		out, err := runCmd(t, "", append(storage, "export", "--format=yaml", "-o", outFile)...)
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(outFile)
		require.NoError(t, err)
		var doc codec.Document
		require.NoError(t, yaml.Unmarshal(data, &doc))
		require.Len(t, doc.Jobs, 1)
		assert.Equal(t, "https://acme.com/?a=1&b=2", doc.Jobs[0].URL)
	})
}

func Test_schema(t *testing.T) {
	out, err := runCmd(t, "", "schema")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")
}

func Test_setupLogsWithLogsDisabled(t *testing.T) {
	opts = options{}
	assert.Equal(t, io.Discard, setupLogs())
}

func Test_setupLogsToFile(t *testing.T) {
	tmpfile, err := os.CreateTemp(t.TempDir(), "")
	require.NoError(t, err)

	opts = options{}
	opts.Log.Enabled = true
	opts.Log.Filename = tmpfile.Name()
	opts.Log.MaxSize = 100
	opts.Log.MaxBackups = 7
	opts.Log.MaxAge = 0
	opts.Log.EnabledCompress = false

	out := setupLogs()
	assert.IsType(t, &lumberjack.Logger{}, out)

	logger := out.(*lumberjack.Logger)
	assert.Equal(t, tmpfile.Name(), logger.Filename)
	assert.Equal(t, 100, logger.MaxSize)
	assert.Equal(t, 7, logger.MaxBackups)
	assert.Equal(t, 0, logger.MaxAge)
	assert.False(t, logger.Compress)

	opts.Log.Filename = ""
	assert.Equal(t, os.Stderr, setupLogs())

	opts = options{}
	setupLogs()
}
