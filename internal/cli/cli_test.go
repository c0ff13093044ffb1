package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murata-lab/memtree/internal/config"
	"github.com/murata-lab/memtree/internal/memory"
	"github.com/murata-lab/memtree/internal/notifier"
	"github.com/murata-lab/memtree/internal/report"
)

func ppid(pid uint32) *uint32 { return &pid }

func sampleProvider() memory.Provider {
	return memory.ProviderFunc(func(context.Context) (*memory.Sample, error) {
		return &memory.Sample{
			System: memory.SystemSample{TotalMemory: 4 << 30, UsedMemory: 1 << 30},
			Processes: []memory.ProcessSample{
				{Pid: 1, Name: "init", Memory: 2 << 20},
				{Pid: 10, Parent: ppid(1), Name: "dockerd", Memory: 100 << 20},
				{Pid: 11, Parent: ppid(10), Name: "containerd", Memory: 50 << 20},
				{Pid: 20, Parent: ppid(1), Name: "cron", Memory: 1 << 20},
			},
		}, nil
	})
}

type recordingNotifier struct {
	title  string
	fields []notifier.Field
	err    error
}

func (r *recordingNotifier) Send(_ context.Context, title, _ string, _ notifier.Color, fields []notifier.Field) error {
	r.title, r.fields = title, fields
	return r.err
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(app)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func defaultConfig() *config.Config {
	return &config.Config{TopCount: config.DefaultTopCount}
}

func TestSummary(t *testing.T) {
	out, err := run(t, NewApp(sampleProvider(), defaultConfig()), "summary")
	require.NoError(t, err)

	assert.Contains(t, out, "Memory:    1.00 GB / 4.00 GB (25.0%)")
	assert.Contains(t, out, "Processes: 4 (4 in tree")
}

func TestTop_Table(t *testing.T) {
	out, err := run(t, NewApp(sampleProvider(), defaultConfig()), "top", "-n", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "dockerd")
	assert.Contains(t, out, "150.00 MB")
	assert.Contains(t, out, "init")
	assert.NotContains(t, out, "cron")
}

func TestTop_OwnJSON(t *testing.T) {
	out, err := run(t, NewApp(sampleProvider(), defaultConfig()), "top", "--own", "--json", "-n", "2")
	require.NoError(t, err)

	var v report.View
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Len(t, v.Top, 2)
	assert.Equal(t, uint32(10), v.Top[0].Pid)
	assert.Equal(t, uint32(11), v.Top[1].Pid)
}

func TestTop_InvalidCount(t *testing.T) {
	_, err := run(t, NewApp(sampleProvider(), defaultConfig()), "top", "-n", "0")
	assert.Error(t, err)
}

func TestTree(t *testing.T) {
	out, err := run(t, NewApp(sampleProvider(), defaultConfig()), "tree")
	require.NoError(t, err)

	assert.Equal(t, "init (pid 1) 2.00 MB\n"+
		"├─ dockerd (pid 10) 150.00 MB\n"+
		"│  └─ containerd (pid 11) 50.00 MB\n"+
		"└─ cron (pid 20) 1.00 MB\n", out)
}

func TestTree_ConfigDefaults(t *testing.T) {
	cfg := defaultConfig()
	cfg.TreeDepth = 1

	out, err := run(t, NewApp(sampleProvider(), cfg), "tree")
	require.NoError(t, err)
	assert.Equal(t, "init (pid 1) 2.00 MB\n", out)

	out, err = run(t, NewApp(sampleProvider(), cfg), "tree", "--depth", "0", "--min", "2097152")
	require.NoError(t, err)
	assert.Contains(t, out, "containerd")
	assert.Contains(t, out, "└─ ... and 1 more")
}

func TestTree_NegativeDepth(t *testing.T) {
	_, err := run(t, NewApp(sampleProvider(), defaultConfig()), "tree", "--depth=-1")
	assert.Error(t, err)
}

func TestTree_JSON(t *testing.T) {
	out, err := run(t, NewApp(sampleProvider(), defaultConfig()), "tree", "--json")
	require.NoError(t, err)

	var v report.View
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Len(t, v.Tree, 1)
	require.Len(t, v.Tree[0].Children, 2)
	assert.Equal(t, "dockerd", v.Tree[0].Children[0].Name)
	assert.Equal(t, uint64(150<<20), v.Tree[0].Children[0].TotalMemory)
}

func TestChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.html")

	out, err := run(t, NewApp(sampleProvider(), defaultConfig()), "chart", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dockerd (10)")
}

func TestReport(t *testing.T) {
	rec := &recordingNotifier{}
	_, err := run(t, NewApp(sampleProvider(), defaultConfig(), WithNotifier(rec)), "report", "-n", "1")
	require.NoError(t, err)

	assert.Equal(t, "メモリレポート", rec.title)
	require.Len(t, rec.fields, 2)
	assert.Equal(t, "1. dockerd (pid 10)", rec.fields[0].Name)
}

func TestReport_MissingWebhook(t *testing.T) {
	_, err := run(t, NewApp(sampleProvider(), defaultConfig()), "report")
	assert.ErrorIs(t, err, config.ErrMissingWebhook)
}

func TestReport_SendError(t *testing.T) {
	sendErr := errors.New("discord API error: status 500")
	rec := &recordingNotifier{err: sendErr}

	_, err := run(t, NewApp(sampleProvider(), defaultConfig(), WithNotifier(rec)), "report")
	assert.ErrorIs(t, err, sendErr)
}

func TestCollectionError(t *testing.T) {
	providerErr := errors.New("open /proc: permission denied")
	app := NewApp(memory.ProviderFunc(func(context.Context) (*memory.Sample, error) {
		return nil, providerErr
	}), defaultConfig())

	_, err := run(t, app, "summary")
	assert.ErrorIs(t, err, memory.ErrCollection)
	assert.ErrorIs(t, err, providerErr)
}
