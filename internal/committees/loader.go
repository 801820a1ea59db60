package committees

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// ValidationError marks a committee table the run must refuse.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("committee table: %s: %s", e.Field, e.Message)
}

// Load reads a JSON jurisdiction table from path. The empty path means
// no file is configured and returns the built-in table.
func Load(path string) ([]*contracts.Committee, error) {
	if path == "" {
		return Builtin(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read committee table: %w", err)
	}

	var table []*contracts.Committee
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse committee table: %w", err)
	}

	if err := Validate(table); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate checks structural constraints on a jurisdiction table.
func Validate(table []*contracts.Committee) error {
	names := make(map[string]struct{}, len(table))
	for i, c := range table {
		where := fmt.Sprintf("committees[%d]", i)
		if c == nil {
			return ValidationError{where, "is null"}
		}
		if c.Name == "" {
			return ValidationError{where + ".name", "required"}
		}
		if _, dup := names[c.Name]; dup {
			return ValidationError{where + ".name", fmt.Sprintf("duplicate committee %q", c.Name)}
		}
		names[c.Name] = struct{}{}

		if !c.Chamber.Known() {
			return ValidationError{where + ".chamber", fmt.Sprintf("unknown chamber %q", c.Chamber)}
		}
		if len(c.Tickers) == 0 && len(c.Keywords) == 0 {
			return ValidationError{where, "needs at least one ticker or keyword"}
		}
		for j, tk := range c.Tickers {
			if tk == "" {
				return ValidationError{fmt.Sprintf("%s.tickers[%d]", where, j), "empty"}
			}
		}
		for j, kw := range c.Keywords {
			if kw == "" {
				return ValidationError{fmt.Sprintf("%s.keywords[%d]", where, j), "empty"}
			}
		}

		seen := make(map[string]struct{}, len(c.Members))
		for j, m := range c.Members {
			seat := fmt.Sprintf("%s.members[%d]", where, j)
			if m.Name == "" {
				return ValidationError{seat + ".name", "required"}
			}
			if m.Rank < 1 {
				return ValidationError{seat + ".rank", "must be >= 1 (1 is the chair)"}
			}
			if _, dup := seen[m.Name]; dup {
				return ValidationError{seat + ".name", fmt.Sprintf("duplicate member %q", m.Name)}
			}
			seen[m.Name] = struct{}{}
		}
	}
	return nil
}
