// Package guard applies the static allow/deny policy to generated code
// before it is ever submitted to the sandbox.
package guard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Policy defines what the validation action accepts.
type Policy struct {
	// DeniedCallPatterns are glob patterns matched against dotted call
	// paths found in the code, e.g. "os.*" rejects os.system.
	DeniedCallPatterns []string `json:"denied_call_patterns" yaml:"denied_call_patterns"`
	// AllowedLanguageIDs are sandbox language identifiers the execute
	// action may submit. Empty means any.
	AllowedLanguageIDs []int `json:"allowed_language_ids" yaml:"allowed_language_ids"`
	// MaxCodeBytes caps the size of a submission. Zero means no cap.
	MaxCodeBytes int `json:"max_code_bytes" yaml:"max_code_bytes"`
}

// DefaultPolicy mirrors the deny list the executor has always enforced.
var DefaultPolicy = Policy{
	DeniedCallPatterns: []string{"os.*", "os.**", "subprocess.*", "subprocess.**", "sys.*", "sys.**"},
	AllowedLanguageIDs: []int{71}, // Python 3
	MaxCodeBytes:       64 * 1024,
}

// Violation is a specific policy breach.
type Violation struct {
	Rule    string
	Message string
}

// Guard enforces the policy.
type Guard struct {
	policy Policy
}

func New(p Policy) *Guard {
	return &Guard{policy: p}
}

// Policy returns the guard's current policy configuration.
func (g *Guard) Policy() Policy {
	return g.policy
}

// callPath matches dotted identifier chains like os.system or sys.exit.
var callPath = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)+`)

// CheckCode scans the code for denied call patterns. Patterns and call
// paths are compared segment-wise, so "os.*" matches os.system but not
// foo.os.system.
func (g *Guard) CheckCode(code string) *Violation {
	if g.policy.MaxCodeBytes > 0 && len(code) > g.policy.MaxCodeBytes {
		return &Violation{
			Rule:    "max_code_bytes",
			Message: fmt.Sprintf("code exceeds %d byte limit", g.policy.MaxCodeBytes),
		}
	}

	for _, call := range callPath.FindAllString(code, -1) {
		for _, pattern := range g.policy.DeniedCallPatterns {
			match, err := doublestar.Match(globForm(pattern), globForm(call))
			if err == nil && match {
				return &Violation{
					Rule:    "denied_call_patterns",
					Message: "code references disallowed call: " + call,
				}
			}
		}
	}
	return nil
}

// CheckLanguage verifies the sandbox language identifier is allowed.
func (g *Guard) CheckLanguage(id int) *Violation {
	if len(g.policy.AllowedLanguageIDs) == 0 {
		return nil
	}
	for _, allowed := range g.policy.AllowedLanguageIDs {
		if allowed == id {
			return nil
		}
	}
	return &Violation{
		Rule:    "allowed_language_ids",
		Message: fmt.Sprintf("language id %d is not allowed", id),
	}
}

// globForm maps dotted paths onto the slash-separated form doublestar
// matches segment-wise.
func globForm(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/")
}

// LoadPolicy reads a policy override from a JSON or YAML file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	var p Policy
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return Policy{}, fmt.Errorf("failed to unmarshal JSON policy: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Policy{}, fmt.Errorf("failed to unmarshal YAML policy: %w", err)
		}
	default:
		return Policy{}, fmt.Errorf("unsupported policy format: %s (use .json or .yaml)", path)
	}
	return p, nil
}
