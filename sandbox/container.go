package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
)

// DefaultImage matches the Python original's DOCKER_IMAGE.
const DefaultImage = "python:3.13-slim"

// MemoryLimitBytes matches the Python original's 256m cap.
const MemoryLimitBytes = 256 * 1024 * 1024

// CPUQuota matches the Python original's half-a-core cap, expressed as
// Docker's NanoCPUs (1e9 = one full CPU).
const CPUQuota = 500_000_000

// ContainerRunner executes sandboxed snippets inside a throwaway Docker
// container: no network, a read-only root filesystem, a noexec tmpfs
// for scratch space, and the caller's base directory mounted read-only.
type ContainerRunner struct {
	cli   *client.Client
	image string
}

// NewContainerRunner connects to the local Docker daemon using the
// standard environment-derived configuration.
func NewContainerRunner(image string) (*ContainerRunner, error) {
	if image == "" {
		image = DefaultImage
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("sandbox: connect to docker: %w", err)
	}
	return &ContainerRunner{cli: cli, image: image}, nil
}

// Available reports whether the Docker daemon is reachable.
func (r *ContainerRunner) Available(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := r.cli.Ping(pingCtx)
	return err == nil
}

// Run pulls the runner image if needed, then executes req.Code inside a
// fresh container with resource caps and network access disabled.
func (r *ContainerRunner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, req.timeout()+10*time.Second)
	defer cancel()

	pullCtx, pullCancel := context.WithTimeout(ctx, 30*time.Second)
	defer pullCancel()
	rc, err := r.cli.ImagePull(pullCtx, r.image, image.PullOptions{})
	if err == nil {
		io.Copy(io.Discard, rc)
		rc.Close()
	}

	tmpDir, err := os.MkdirTemp("", "scribe-sandbox-*")
	if err != nil {
		return RunResult{}, fmt.Errorf("sandbox: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	scriptPath := tmpDir + "/snippet.py"
	harness := buildHarness(req.Code, req.Seed)
	if err := os.WriteFile(scriptPath, []byte(harness), 0o644); err != nil {
		return RunResult{}, fmt.Errorf("sandbox: write script: %w", err)
	}

	mountSrc := req.BaseDir
	if mountSrc == "" {
		mountSrc, _ = os.Getwd()
	}

	input := req.InputJSON
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	containerName := "sandbox_" + uuid.NewString()[:8]

	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		ReadonlyRootfs: true,
		Resources: container.Resources{
			Memory:   MemoryLimitBytes,
			NanoCPUs: CPUQuota,
		},
		Tmpfs: map[string]string{
			"/tmp": "noexec,nosuid,size=100m",
		},
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: mountSrc, Target: "/workspace", ReadOnly: true},
			{Type: mount.TypeBind, Source: scriptPath, Target: "/snippet.py", ReadOnly: true},
		},
	}
	containerCfg := &container.Config{
		Image: r.image,
		Cmd:   []string{"python", "-u", "/snippet.py"},
		Env: []string{
			"SANDBOX_INPUT=" + string(input),
			"PYTHONPATH=/workspace",
		},
	}

	start := time.Now()
	created, err := r.cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, containerName)
	if err != nil {
		return RunResult{}, fmt.Errorf("sandbox: create container: %w", err)
	}
	defer r.cli.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})

	if err := r.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return RunResult{}, fmt.Errorf("sandbox: start container: %w", err)
	}

	waitCh, errCh := r.cli.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			r.cli.ContainerKill(context.Background(), created.ID, "KILL")
			stdout, stderr := r.collectLogs(created.ID)
			return RunResult{
				OK:          false,
				Stdout:      stdout,
				Stderr:      stderr,
				ReturnCode:  -9,
				DurationMs:  time.Since(start).Milliseconds(),
				Isolated:    true,
				ContainerID: containerName,
			}, nil
		}
		if err != nil {
			return RunResult{}, fmt.Errorf("sandbox: wait container: %w", err)
		}
	case status := <-waitCh:
		exitCode = status.StatusCode
	}

	stdout, stderr := r.collectLogs(created.ID)
	return RunResult{
		OK:          exitCode == 0,
		Stdout:      truncate(stdout, StdioLimit),
		Stderr:      truncate(stderr, StdioLimit),
		ReturnCode:  int(exitCode),
		DurationMs:  time.Since(start).Milliseconds(),
		Isolated:    true,
		ContainerID: containerName,
	}, nil
}

func (r *ContainerRunner) collectLogs(containerID string) (stdout, stderr string) {
	logs, err := r.cli.ContainerLogs(context.Background(), containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", ""
	}
	defer logs.Close()

	var outBuf, errBuf bytes.Buffer
	stdcopy.StdCopy(&outBuf, &errBuf, logs)
	return outBuf.String(), errBuf.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
