// Package fixture loads YAML-described key/value entries for the demo CLI
// and for tests that want a human-editable dataset instead of generated
// random keys.
package fixture

import (
	"crypto/sha256"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	smt "github.com/smtgo/sparsemerkletree"
)

// Entry is one key/value pair as decoded from a fixture file.
type Entry struct {
	Key   smt.H256
	Value smt.H256
}

type rawEntry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type rawFixture struct {
	Entries []rawEntry `yaml:"entries"`
}

// Load reads and decodes a fixture file at path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes fixture YAML already held in memory.
func Parse(data []byte) ([]Entry, error) {
	var raw rawFixture
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("fixture: decode: %w", err)
	}
	entries := make([]Entry, len(raw.Entries))
	for i, re := range raw.Entries {
		key, err := smt.H256FromHex(re.Key)
		if err != nil {
			return nil, fmt.Errorf("fixture: entry %d key: %w", i, err)
		}
		value, err := smt.H256FromHex(re.Value)
		if err != nil {
			return nil, fmt.Errorf("fixture: entry %d value: %w", i, err)
		}
		entries[i] = Entry{Key: key, Value: value}
	}
	return entries, nil
}

// QuickBrownFox builds the nine-entry fixture described in spec.md scenario
// S6: key i = H(le_bytes(i)), value i = H(word i) of the nine
// whitespace-separated words of "The quick brown fox jumps over the lazy
// dog", one leaf per word (no wraparound) — matching how
// original_source/src/tests/tree.rs's test_merkle_root resolves the
// scenario's "i in 0..9" to exactly nine leaves.
func QuickBrownFox() []Entry {
	words := []string{"The", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog"}
	entries := make([]Entry, len(words))
	for i, word := range words {
		keyDigest := sha256.Sum256([]byte{byte(i)})
		valueDigest := sha256.Sum256([]byte(word))
		entries[i] = Entry{Key: smt.H256(keyDigest), Value: smt.H256(valueDigest)}
	}
	return entries
}
