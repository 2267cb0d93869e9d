package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rpggio/aoiforge/internal/config"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AOIFORGE_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("AOIFORGE_CONFIG_PATH", "")
	t.Setenv("AOIFORGE_UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("AOIFORGE_PACKAGE_DIR", filepath.Join(dir, "packages"))
	t.Setenv("AOIFORGE_LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := BuildCLI()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClassesCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "classes")
	require.NoError(t, err)
	require.Contains(t, out, "SCRATCH")
	require.Contains(t, out, "划痕 (Scratch)")
	require.Contains(t, out, "103")
}

func TestSamplesListCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "samples", "list", "--line", "optical", "--json")
	require.NoError(t, err)

	var samples []sample.Sample
	require.NoError(t, json.Unmarshal([]byte(out), &samples))
	require.Len(t, samples, 3)
	for _, s := range samples {
		require.Equal(t, sample.LineOptical, s.Line)
	}

	out, err = execute(t, "samples", "list", "-q", "WL_BOARD_0002")
	require.NoError(t, err)
	require.Contains(t, out, "S-1002")
	require.Contains(t, out, "开焊 (Soldering)")
	require.NotContains(t, out, "S-1001")

	_, err = execute(t, "samples", "list", "--line", "lcd")
	require.Error(t, err)
}

func TestTrainCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "train", "--fast", "--hardware", "cpu", "--scenario", "detection")
	require.NoError(t, err)
	require.Contains(t, out, "base_model=YOLOv8-Industrial-S batch_size=4")
	require.Contains(t, out, "[INFO] Initializing build environment...")
	require.Contains(t, out, "[SUCCESS] Build complete.")
	require.Contains(t, out, "145 MiB")
}

func TestTrainCommand_RejectsLockedBaseModel(t *testing.T) {
	isolate(t)

	_, err := execute(t, "train", "--fast", "--engineer", "--base-model", "ResNet-50")
	require.Error(t, err)
}

func TestStack_SQLiteStoreAndHTTP(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Driver = "sqlite"
	cfg.DB.Path = filepath.Join(dir, "db", "aoiforge.db")
	cfg.Upload.Dir = filepath.Join(dir, "uploads")
	cfg.Package.Dir = filepath.Join(dir, "packages")

	stack, err := NewStack(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Close() })

	all, err := stack.Samples.List(context.Background(), sample.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 6)

	server := httptest.NewServer(stack.HTTPHandler())
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/rpc", "application/json",
		bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_classes","id":1}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(body), "SOLDERING")

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(body), "aoiforge_console_sessions 1")
}
