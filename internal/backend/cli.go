package backend

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/docintel/internal/common"
)

// cliBackend invokes a local AI CLI as a subprocess. All three concrete
// back-ends share this; they differ only in binary, arguments, and how
// authentication is detected.
type cliBackend struct {
	name     string
	bin      string
	args     []string
	authFunc func() bool
	logger   *slog.Logger
}

func (b *cliBackend) Name() string { return b.name }

func (b *cliBackend) IsAuthenticated() bool {
	if _, err := exec.LookPath(b.bin); err != nil {
		return false
	}
	return b.authFunc()
}

// Invoke runs the CLI with the prompt on stdin. Context expiry kills the
// subprocess, which is how a stage timeout forcibly terminates the call.
func (b *cliBackend) Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b.logger.Info("backend.invoke.start",
		"req_id", reqID,
		"backend", b.name,
		"prompt_len", len(prompt),
		"timeout_ms", timeout.Milliseconds(),
	)

	cmd := exec.CommandContext(cctx, b.bin, b.args...)
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if cctx.Err() != nil {
			b.logger.Warn("backend.invoke.timeout",
				"req_id", reqID, "backend", b.name, "elapsed_ms", elapsed)
			return "", errors.Join(common.ErrStageTimeout, cctx.Err())
		}
		b.logger.Error("backend.invoke.failed",
			"req_id", reqID, "backend", b.name, "error", err,
			"stderr", truncate(stderr.String(), 500), "elapsed_ms", elapsed)
		return "", common.WrapError(err, b.name+" invocation failed")
	}

	b.logger.Info("backend.invoke.ok",
		"req_id", reqID, "backend", b.name,
		"response_len", stdout.Len(), "elapsed_ms", elapsed)
	return stdout.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NewGemini builds the Gemini CLI back-end. Authenticated when an API key is
// exported or the CLI's cached OAuth credentials exist.
func NewGemini(logger *slog.Logger, bin string) Backend {
	return &cliBackend{
		name:   "gemini",
		bin:    bin,
		args:   []string{"-p"},
		logger: pickLogger(logger),
		authFunc: func() bool {
			return os.Getenv("GEMINI_API_KEY") != "" ||
				homeFileExists(".gemini", "oauth_creds.json")
		},
	}
}

// NewCodex builds the Codex CLI back-end.
func NewCodex(logger *slog.Logger, bin string) Backend {
	return &cliBackend{
		name:   "codex",
		bin:    bin,
		args:   []string{"exec", "-"},
		logger: pickLogger(logger),
		authFunc: func() bool {
			return os.Getenv("OPENAI_API_KEY") != "" ||
				homeFileExists(".codex", "auth.json")
		},
	}
}

// NewClaude builds the Claude CLI back-end.
func NewClaude(logger *slog.Logger, bin string) Backend {
	return &cliBackend{
		name:   "claude",
		bin:    bin,
		args:   []string{"-p", "--output-format", "text"},
		logger: pickLogger(logger),
		authFunc: func() bool {
			return os.Getenv("ANTHROPIC_API_KEY") != "" ||
				homeFileExists(".claude", ".credentials.json")
		},
	}
}

func pickLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func homeFileExists(parts ...string) bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	st, err := os.Stat(filepath.Join(append([]string{home}, parts...)...))
	return err == nil && !st.IsDir()
}
