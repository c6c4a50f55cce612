package scribe

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/arcoslabs/scribe/sandbox"
)

// RunSnippet executes code in an isolated sandbox: Docker when the
// daemon is reachable, a plain subprocess otherwise. The caller's
// base directory is exposed read-only inside the sandbox at /workspace
// when Docker is used. Every run that returns a result is logged as one
// structured audit line.
func RunSnippet(ctx context.Context, code string, input json.RawMessage, timeoutSeconds int, seed int64, baseDir string) (result ExecResult, err error) {
	defer func() {
		if err == nil {
			slog.Info("sandbox run", "isolated", result.Isolated, "container_id", result.ContainerID, "ok", result.OK,
				"returncode", result.ReturnCode, "duration_ms", result.DurationMs, "seed", seed, "timeout_s", timeoutSeconds)
		}
	}()
	req := sandbox.RunRequest{
		Code:           code,
		InputJSON:      input,
		TimeoutSeconds: timeoutSeconds,
		Seed:           seed,
		BaseDir:        baseDir,
	}

	if runner, err := sandbox.NewContainerRunner(""); err == nil && runner.Available(ctx) {
		res, err := runner.Run(ctx, req)
		if err == nil {
			return toExecResult(res), nil
		}
		slog.Warn("docker sandbox failed, falling back to subprocess", "error", err)
	}

	res, err := sandbox.NewSubprocessRunner("python3").Run(ctx, req)
	if err != nil {
		return ExecResult{}, err
	}
	return toExecResult(res), nil
}

func toExecResult(r sandbox.RunResult) ExecResult {
	return ExecResult{
		OK:          r.OK,
		Stdout:      r.Stdout,
		Stderr:      r.Stderr,
		ReturnCode:  r.ReturnCode,
		DurationMs:  r.DurationMs,
		Isolated:    r.Isolated,
		ContainerID: r.ContainerID,
	}
}
