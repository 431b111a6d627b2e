package capability

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolCard is the catalog entry of one callable tool.
type ToolCard struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	SideEffects []string       `json:"side_effects,omitempty"`
	Checksum    string         `json:"checksum"`
	Signature   string         `json:"signature,omitempty"`
}

// ErrToolMissing indicates a required tool is not registered.
var ErrToolMissing = fmt.Errorf("required tool missing")

// Registry holds validated ToolCards keyed by tool name.
type Registry struct {
	tools    map[string]ToolCard
	compiled map[string]*santhosh.Schema
}

// NewRegistry validates ToolCards and ensures required tools exist. An empty
// signing secret skips signature checks.
func NewRegistry(cards []ToolCard, signingSecret string, required []string) (*Registry, error) {
	reg := &Registry{tools: make(map[string]ToolCard), compiled: make(map[string]*santhosh.Schema)}
	for _, tc := range cards {
		if err := ValidateToolCard(tc); err != nil {
			return nil, fmt.Errorf("tool %s@%s invalid: %w", tc.Name, tc.Version, err)
		}
		if err := validateSignature(tc, signingSecret); err != nil {
			return nil, fmt.Errorf("tool %s@%s signature invalid: %w", tc.Name, tc.Version, err)
		}
		existing, ok := reg.tools[tc.Name]
		if ok && !versionGreater(tc.Version, existing.Version) {
			continue
		}
		schema, err := compileSchema(tc)
		if err != nil {
			return nil, err
		}
		reg.tools[tc.Name] = tc
		reg.compiled[tc.Name] = schema
	}
	for _, r := range required {
		if _, ok := reg.tools[r]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolMissing, r)
		}
	}
	return reg, nil
}

// Tool returns the ToolCard for a tool name.
func (r *Registry) Tool(name string) (ToolCard, bool) {
	if r == nil {
		return ToolCard{}, false
	}
	tc, ok := r.tools[name]
	return tc, ok
}

// Tools returns the cards for names, failing on the first unknown one.
func (r *Registry) Tools(names ...string) ([]ToolCard, error) {
	out := make([]ToolCard, 0, len(names))
	for _, n := range names {
		tc, ok := r.Tool(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolMissing, n)
		}
		out = append(out, tc)
	}
	return out, nil
}

// List returns every card sorted by name.
func (r *Registry) List() []ToolCard {
	out := make([]ToolCard, 0, len(r.tools))
	for _, tc := range r.tools {
		out = append(out, tc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ValidateArguments checks JSON call arguments against the tool input schema.
func (r *Registry) ValidateArguments(name string, arguments []byte) error {
	schema, ok := r.compiled[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrToolMissing, name)
	}
	if len(bytes.TrimSpace(arguments)) == 0 {
		arguments = []byte("{}")
	}
	var doc any
	if err := json.Unmarshal(arguments, &doc); err != nil {
		return fmt.Errorf("decode %s arguments: %w", name, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s arguments: %w", name, err)
	}
	return nil
}

// ValidateToolCard checks mandatory fields and that the input schema compiles.
func ValidateToolCard(tc ToolCard) error {
	if strings.TrimSpace(tc.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(tc.Version) == "" {
		return fmt.Errorf("version is required")
	}
	if tc.InputSchema == nil {
		return fmt.Errorf("input_schema is required")
	}
	if _, err := compileSchema(tc); err != nil {
		return err
	}
	return nil
}

func compileSchema(tc ToolCard) (*santhosh.Schema, error) {
	raw, err := json.Marshal(tc.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal input_schema: %w", err)
	}
	url := tc.Name + ".json"
	compiler := santhosh.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add input_schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile input_schema: %w", err)
	}
	return schema, nil
}

// ComputeChecksum returns a deterministic hash of the ToolCard payload (excluding signature field).
func ComputeChecksum(tc ToolCard) (string, error) {
	payload := map[string]any{
		"name":         tc.Name,
		"version":      tc.Version,
		"description":  tc.Description,
		"input_schema": tc.InputSchema,
		"side_effects": tc.SideEffects,
	}
	normalized, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(normalized)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChecksum reports a mismatch between the stored and computed checksum.
func VerifyChecksum(tc ToolCard) error {
	sum, err := ComputeChecksum(tc)
	if err != nil {
		return err
	}
	if sum != tc.Checksum {
		return fmt.Errorf("checksum mismatch for %s@%s", tc.Name, tc.Version)
	}
	return nil
}

// SignToolCard computes an HMAC signature using the signing secret.
func SignToolCard(tc ToolCard, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("signing secret is empty")
	}
	checksum, err := ComputeChecksum(tc)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(checksum))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Seal fills Checksum and, when a secret is set, Signature.
func Seal(tc ToolCard, secret string) (ToolCard, error) {
	sum, err := ComputeChecksum(tc)
	if err != nil {
		return tc, err
	}
	tc.Checksum = sum
	if secret == "" {
		return tc, nil
	}
	sig, err := SignToolCard(tc, secret)
	if err != nil {
		return tc, err
	}
	tc.Signature = sig
	return tc, nil
}

func validateSignature(tc ToolCard, secret string) error {
	if secret == "" {
		return nil
	}
	expected, err := SignToolCard(tc, secret)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(expected), []byte(tc.Signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

func versionGreater(a, b string) bool {
	if a == b {
		return false
	}
	return compareVersions(splitVersion(a), splitVersion(b)) > 0
}

func splitVersion(v string) []int {
	parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		fmt.Sscanf(p, "%d", &out[i])
	}
	return out
}

func compareVersions(a, b []int) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		ai, bi := 0, 0
		if i < len(a) {
			ai = a[i]
		}
		if i < len(b) {
			bi = b[i]
		}
		if ai > bi {
			return 1
		}
		if ai < bi {
			return -1
		}
	}
	return 0
}
