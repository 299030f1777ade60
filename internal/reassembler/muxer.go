package reassembler

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Muxer turns an ordered concat list into one container file at outputPath.
type Muxer interface {
	Mux(ctx context.Context, spec ConcatSpec, outputPath string) error
}

const diagnosticTailBytes = 500

// CommandResult is the captured outcome of one child process.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// FFmpegMuxer stream-copies the concat list into an mp4 container.
type FFmpegMuxer struct {
	binary string
	runner CommandRunner
}

func NewFFmpegMuxer(binary string) FFmpegMuxer {
	return NewFFmpegMuxerWithRunner(binary, ExecRunner{})
}

func NewFFmpegMuxerWithRunner(binary string, runner CommandRunner) FFmpegMuxer {
	if binary == "" {
		binary = "ffmpeg"
	}
	return FFmpegMuxer{binary: binary, runner: runner}
}

func (m FFmpegMuxer) Mux(ctx context.Context, spec ConcatSpec, outputPath string) error {
	result, err := m.runner.Run(ctx, m.binary, ffmpegArgs(spec.ListPath, outputPath)...)
	if err != nil {
		return &MuxError{
			ExitCode: result.ExitCode,
			Output:   tail(result.Stdout+result.Stderr, diagnosticTailBytes),
			Err:      err,
		}
	}
	return nil
}

func ffmpegArgs(listPath string, outputPath string) []string {
	return []string{
		"-protocol_whitelist", "file,http,https,tcp,tls,crypto",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-y", outputPath,
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
