package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hpungsan/pocket/internal/config"
	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/logger"
)

// HookExtractor delegates browser automation to an external command.
//
// The command is run as Command[0] with Command[1:] plus the origin URL as
// arguments. TokenScript is written to its stdin and it must print the
// script's JSON result on stdout.
type HookExtractor struct {
	Command []string
	Origin  string
}

// Extract runs the hook and parses its output.
func (h *HookExtractor) Extract(ctx context.Context) (*Credential, error) {
	if len(h.Command) == 0 {
		return nil, errors.NewExtractionFailed("hook_command is not configured")
	}

	origin := h.Origin
	if origin == "" {
		origin = config.DefaultLoginOrigin
	}

	args := append(append([]string{}, h.Command[1:]...), origin)
	cmd := exec.CommandContext(ctx, h.Command[0], args...)
	cmd.Stdin = strings.NewReader(TokenScript)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugf("running extract hook %s", h.Command[0])
	if err := cmd.Run(); err != nil {
		return nil, hookFailure(fmt.Sprintf("hook %s: %v", h.Command[0], err), stderr.String())
	}

	var data map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &data); err != nil {
		return nil, hookFailure(fmt.Sprintf("hook output is not a JSON object: %v", err), stderr.String())
	}
	return ParseResult(data)
}

func hookFailure(reason, stderr string) *errors.PocketError {
	e := errors.NewExtractionFailed(reason)
	if s := strings.TrimSpace(stderr); s != "" {
		e.Details["stderr"] = s
	}
	return e
}
