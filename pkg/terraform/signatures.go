package terraform

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed signatures.yaml
var builtinSignatures []byte

// SignatureTable is a versioned list of lock-contention signatures.
// It is plain data so new backend failure phrasings can be added
// without touching the retry control flow.
type SignatureTable struct {
	Version  int      `yaml:"version"`
	Patterns []string `yaml:"patterns"`
}

// DefaultSignatures returns the embedded signature table.
func DefaultSignatures() SignatureTable {
	var t SignatureTable
	// The embedded table is validated by tests; a decode failure here
	// would be a build defect.
	if err := yaml.Unmarshal(builtinSignatures, &t); err != nil {
		panic(fmt.Sprintf("embedded signature table is invalid: %v", err))
	}
	return t
}

// LoadSignatures reads a signature table from a YAML file, falling
// back to the embedded table when the file does not exist.
func LoadSignatures(path string) (SignatureTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSignatures(), nil
		}
		return SignatureTable{}, fmt.Errorf("failed to read signature table: %v", err)
	}
	var t SignatureTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return SignatureTable{}, fmt.Errorf("failed to parse signature table %s: %v", path, err)
	}
	if len(t.Patterns) == 0 {
		return SignatureTable{}, fmt.Errorf("signature table %s has no patterns", path)
	}
	return t, nil
}

// Match reports whether the output contains any lock-contention
// signature. Matching is a case-insensitive substring scan.
func (t SignatureTable) Match(output []byte) bool {
	lower := strings.ToLower(string(output))
	for _, p := range t.Patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
