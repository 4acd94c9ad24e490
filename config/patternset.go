package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ai8future/secval-go/jsonval"
)

// patternFile is the on-disk shape of a pattern-set override file.
type patternFile struct {
	// Extend, when true (the default), appends the file's patterns to the
	// built-in set. When false the file replaces the built-ins entirely.
	Extend   *bool              `yaml:"extend"`
	Patterns jsonval.PatternSet `yaml:"patterns"`
}

// LoadPatternSet reads a YAML pattern-set file and returns the resulting
// set. The file lists regular expressions per category:
//
//	extend: true
//	patterns:
//	  dangerous_keys:
//	    - '^__secret_'
//	  sql_injection:
//	    - '\bpg_sleep\s*\('
//
// Patterns are not compiled here; pass the set to jsonval.NewRegistry to
// get compile errors attributed to the offending pattern.
func LoadPatternSet(path string) (jsonval.PatternSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return jsonval.PatternSet{}, fmt.Errorf("config: read pattern set: %w", err)
	}

	var file patternFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return jsonval.PatternSet{}, fmt.Errorf("config: parse pattern set %s: %w", path, err)
	}

	if file.Extend != nil && !*file.Extend {
		return file.Patterns, nil
	}
	base := jsonval.DefaultPatternSet()
	base.DangerousKeys = append(base.DangerousKeys, file.Patterns.DangerousKeys...)
	base.ScriptInjection = append(base.ScriptInjection, file.Patterns.ScriptInjection...)
	base.SQLInjection = append(base.SQLInjection, file.Patterns.SQLInjection...)
	base.PathTraversal = append(base.PathTraversal, file.Patterns.PathTraversal...)
	return base, nil
}

// MustLoadRegistry is LoadPatternSet followed by registry compilation,
// panicking on any failure. Intended for process start-up where a broken
// pattern file should stop the service.
func MustLoadRegistry(path string) *jsonval.PatternRegistry {
	set, err := LoadPatternSet(path)
	if err != nil {
		panic(err)
	}
	reg, err := jsonval.NewRegistry(set)
	if err != nil {
		panic(err)
	}
	return reg
}
