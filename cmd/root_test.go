package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_FlushesMetricsOnFailure(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "lnl.prom")
	t.Setenv("LNL_METRICS_FILE", metricsFile)

	rootCmd.SetArgs([]string{"select",
		"--video", filepath.Join(dir, "missing.mp4"),
		"--no-progress",
		"--output", filepath.Join(dir, "out"),
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := run(context.Background()); err == nil {
		t.Fatal("Expected select on a missing video to fail")
	}

	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("Metrics textfile not written after a failed run: %v", err)
	}
	if !strings.Contains(string(data), "lnl_batch_failures_total") {
		t.Errorf("Metrics textfile is missing the failure counter:\n%s", data)
	}
}
