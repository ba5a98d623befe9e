package security

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// Completer sends a single prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error)
}

const (
	// llmMaxSourceBytes bounds how much component source goes into one prompt.
	llmMaxSourceBytes = 48 * 1024
	llmMaxTokens      = 512
)

const llmSystemPrompt = `You are a security reviewer for small automation components.
Classify the risk of running the component on a developer machine.
Reply with JSON only: {"risk_level": "LOW|MEDIUM|HIGH|CRITICAL", "reasons": ["..."]}.
CRITICAL: destructive, exfiltrating or remote-control behavior.
HIGH: arbitrary command execution, embedded credentials, privilege escalation.
MEDIUM: sensitive but legitimate access such as crypto, databases or credentials handling.
LOW: nothing of concern.`

// LLMVerdict is the Detail of an LLMGate result.
type LLMVerdict struct {
	RiskLevel string   `json:"risk_level"`
	Reasons   []string `json:"reasons"`
}

func (v LLMVerdict) String() string {
	return strings.Join(v.Reasons, "; ")
}

// LLMGate asks a language model to classify a component.
// An unparseable reply is an error, which the policy treats as HIGH.
type LLMGate struct {
	client Completer
	logger *zap.Logger
}

// NewLLMGate creates a gate backed by client.
func NewLLMGate(client Completer, logger *zap.Logger) *LLMGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGate{client: client, logger: logger.With(zap.String("component", "llm-gate"))}
}

// Scan classifies the component at path.
func (g *LLMGate) Scan(ctx context.Context, path string) (ScanResult, error) {
	source, err := collectSource(path, llmMaxSourceBytes)
	if err != nil {
		return ScanResult{}, fmt.Errorf("read component: %w", err)
	}

	prompt := fmt.Sprintf("Component: %s\n\n%s", filepath.Base(path), source)
	reply, err := g.client.Complete(ctx, llmSystemPrompt, prompt, llmMaxTokens)
	if err != nil {
		return ScanResult{}, err
	}

	verdict, err := parseVerdict(reply)
	if err != nil {
		g.logger.Warn("unparseable classification", zap.String("path", path), zap.String("reply", reply))
		return ScanResult{}, err
	}
	return ScanResult{Risk: models.ParseRiskLevel(verdict.RiskLevel), Detail: verdict}, nil
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseVerdict extracts the JSON verdict from a model reply, tolerating
// surrounding prose or code fences.
func parseVerdict(reply string) (LLMVerdict, error) {
	var v LLMVerdict
	raw := jsonObjectRe.FindString(reply)
	if raw == "" {
		return v, fmt.Errorf("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("parse classification: %w", err)
	}
	if !models.RiskLevel(strings.ToUpper(strings.TrimSpace(v.RiskLevel))).Valid() {
		return v, fmt.Errorf("unknown risk level %q", v.RiskLevel)
	}
	return v, nil
}

// collectSource concatenates the text files of a component, truncated to limit bytes.
func collectSource(path string, limit int) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	add := func(p string) error {
		if sb.Len() >= limit {
			return filepath.SkipAll
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if isBinary(data) {
			return nil
		}
		rel, _ := filepath.Rel(filepath.Dir(path), p)
		fmt.Fprintf(&sb, "--- %s ---\n", filepath.ToSlash(rel))
		if room := limit - sb.Len(); len(data) > room {
			data = append(data[:max(room, 0)], "\n[truncated]"...)
		}
		sb.Write(data)
		sb.WriteString("\n")
		return nil
	}

	if !info.IsDir() {
		err = add(path)
		if err == filepath.SkipAll {
			err = nil
		}
		return sb.String(), err
	}
	err = filepath.WalkDir(path, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			if p != path && strings.HasPrefix(e.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !e.Type().IsRegular() {
			return nil
		}
		return add(p)
	})
	return sb.String(), err
}
