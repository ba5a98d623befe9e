package security

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// Rule flags lines of component source that match Pattern.
type Rule struct {
	Name    string           `yaml:"name"`
	Pattern string           `yaml:"pattern"`
	Risk    models.RiskLevel `yaml:"risk"`
	Reason  string           `yaml:"reason"`
	// Languages limits the rule to files of these languages; empty means all files.
	Languages []string `yaml:"languages,omitempty"`

	re *regexp.Regexp
}

func (r *Rule) compile() error {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("rule %s: %w", r.Name, err)
	}
	r.re = re
	r.Risk = models.ParseRiskLevel(string(r.Risk))
	return nil
}

func (r *Rule) appliesTo(lang string) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, l := range r.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// DefaultRules are the content rules every Detector starts with.
var DefaultRules = []Rule{
	// Critical: destructive or remote-control behavior.
	{Name: "destructive-rm", Pattern: `\brm\s+-(?:rf|fr|r)\s+(?:/|~/?|\$HOME/?)\*?(?:\s|$|["';&|])`, Risk: models.RiskCritical, Reason: "Recursive delete of root or home directory"},
	{Name: "pipe-to-shell", Pattern: `\b(?:curl|wget)\b[^|\n]*\|\s*(?:sudo\s+)?(?:ba|z)?sh\b`, Risk: models.RiskCritical, Reason: "Downloads and executes a remote script"},
	{Name: "reverse-shell", Pattern: `/dev/tcp/\S+|\bnc\b[^\n]*\s-e\s`, Risk: models.RiskCritical, Reason: "Reverse shell"},
	{Name: "fork-bomb", Pattern: `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`, Risk: models.RiskCritical, Reason: "Fork bomb"},
	{Name: "disk-wipe", Pattern: `\bmkfs(?:\.\w+)?\s+/dev/|\bdd\s+[^\n]*\bof=/dev/(?:sd|hd|nvme|disk|xvd)`, Risk: models.RiskCritical, Reason: "Overwrites a block device"},
	{Name: "private-key", Pattern: `-----BEGIN (?:RSA |EC |DSA |OPENSSH |ENCRYPTED )?PRIVATE KEY-----`, Risk: models.RiskCritical, Reason: "Embedded private key"},

	// High: arbitrary execution and embedded credentials.
	{Name: "shell-exec", Pattern: `"os/exec"|\bsubprocess\.|\bchild_process\b|\bos\.system\(|\bos\.popen\(`, Risk: models.RiskHigh, Reason: "Spawns external processes"},
	{Name: "dynamic-eval", Pattern: `(?:^|[^.\w])(?:eval|exec)\s*\(`, Risk: models.RiskHigh, Reason: "Evaluates dynamic code", Languages: []string{"python", "typescript"}},
	{Name: "hardcoded-secret", Pattern: `(?i)\b(?:api[_-]?key|secret|password|passwd|access[_-]?token)\b["']?\s*[:=]\s*["'][^"'\s]{8,}["']`, Risk: models.RiskHigh, Reason: "Hardcoded credential"},
	{Name: "aws-access-key", Pattern: `\bAKIA[0-9A-Z]{16}\b`, Risk: models.RiskHigh, Reason: "Embedded AWS access key"},
	{Name: "privilege-escalation", Pattern: `(?:^|[;&|]\s*)sudo\s+`, Risk: models.RiskHigh, Reason: "Runs commands as root"},

	// Medium: sensitive but common.
	{Name: "world-writable", Pattern: `\bchmod\s+(?:-R\s+)?(?:0?777|a\+w)\b`, Risk: models.RiskMedium, Reason: "Makes files world writable"},
	{Name: "unsafe-pointer", Pattern: `"unsafe"`, Risk: models.RiskMedium, Reason: "Uses unsafe memory access", Languages: []string{"go"}},
}

// ImportRules flag security-sensitive imports. They only raise MEDIUM: the
// code is legitimate but deserves a second look.
var ImportRules = []Rule{
	{Name: "import-crypto", Pattern: `"(?:crypto/|golang\.org/x/crypto/)`, Risk: models.RiskMedium, Reason: "Cryptography", Languages: []string{"go"}},
	{Name: "import-jwt", Pattern: `"github\.com/[^/]+/jwt`, Risk: models.RiskMedium, Reason: "JWT authentication", Languages: []string{"go"}},
	{Name: "import-oauth2", Pattern: `"golang\.org/x/oauth2`, Risk: models.RiskMedium, Reason: "OAuth2 authentication", Languages: []string{"go"}},
	{Name: "import-sql", Pattern: `"database/sql"`, Risk: models.RiskMedium, Reason: "Database access", Languages: []string{"go"}},
	{Name: "import-crypto", Pattern: `(?:from|require\(|import)\s*\(?['"](?:crypto|bcrypt|jsonwebtoken|passport)['"]`, Risk: models.RiskMedium, Reason: "Cryptography or authentication", Languages: []string{"typescript"}},
	{Name: "import-crypto", Pattern: `^\s*(?:import|from)\s+(?:cryptography|jwt|secrets|hashlib|bcrypt|passlib)\b`, Risk: models.RiskMedium, Reason: "Cryptography or authentication", Languages: []string{"python"}},
	{Name: "import-sql", Pattern: `^\s*(?:import|from)\s+(?:sqlalchemy|sqlite3|psycopg2|pymysql)\b`, Risk: models.RiskMedium, Reason: "Database access", Languages: []string{"python"}},
	{Name: "import-crypto", Pattern: `^\s*use\s+(?:ring|crypto|jsonwebtoken|bcrypt|argon2)\b`, Risk: models.RiskMedium, Reason: "Cryptography or authentication", Languages: []string{"rust"}},
	{Name: "import-sql", Pattern: `^\s*use\s+(?:diesel|sqlx)\b`, Risk: models.RiskMedium, Reason: "Database access", Languages: []string{"rust"}},
}

// SensitivePaths mark files whose location alone warrants a MEDIUM finding.
type SensitivePaths struct {
	Patterns  []string `yaml:"patterns"`
	Keywords  []string `yaml:"keywords"`
	FileTypes []string `yaml:"file_types"`
}

// DefaultSensitivePaths lists credential stores, infrastructure and auth code.
var DefaultSensitivePaths = SensitivePaths{
	Patterns: []string{
		"**/auth/**",
		"**/secrets/**",
		"**/credentials/**",
		"**/certs/**",
		"**/.ssh/**",
		"**/terraform/**",
		"**/k8s/**",
	},
	Keywords: []string{
		"password",
		"secret",
		"credential",
		"private_key",
		"oauth",
	},
	FileTypes: []string{
		".pem",
		".key",
		".env",
		".p12",
		".pfx",
		".jks",
		".keystore",
	},
}

// RulesFile is the YAML document accepted by LoadRules.
type RulesFile struct {
	Rules          []Rule         `yaml:"rules"`
	SensitivePaths SensitivePaths `yaml:"sensitive_paths"`
	// Disable turns off built-in rules by name.
	Disable []string `yaml:"disable"`
}

// LoadRules reads a rules file.
func LoadRules(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf RulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	for i := range rf.Rules {
		if rf.Rules[i].Name == "" {
			rf.Rules[i].Name = fmt.Sprintf("custom-%d", i+1)
		}
		if err := rf.Rules[i].compile(); err != nil {
			return nil, err
		}
	}
	return &rf, nil
}

// languageOf maps a file extension to a rule language.
func languageOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs":
		return "typescript"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	case ".sh", ".bash", ".zsh":
		return "shell"
	default:
		return ""
	}
}
