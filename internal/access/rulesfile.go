package access

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules reads a YAML route table:
//
//	rules:
//	  - pattern: /articles/:id
//	    match: exact
//	    visibility: public
//	  - pattern: /articles
//	    match: exact
//	    flag: mine
//	    visibility: private
func ParseRules(r io.Reader) ([]Rule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f rulesFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("access: rules file is empty")
		}
		return nil, fmt.Errorf("access: decode rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, errors.New("access: rules file has no rules")
	}
	for i, r := range f.Rules {
		if _, err := compileRule(r); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return f.Rules, nil
}

// LoadRulesFile reads rules from path. An empty path yields DefaultRules.
func LoadRulesFile(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("access: read rules: %w", err)
	}
	return ParseRules(bytes.NewReader(b))
}
