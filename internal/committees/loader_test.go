package committees

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

func TestBuiltinIsValid(t *testing.T) {
	table := Builtin()
	if len(table) == 0 {
		t.Fatal("built-in table is empty")
	}
	if err := Validate(table); err != nil {
		t.Fatalf("built-in table failed validation: %v", err)
	}

	// Both chambers must be represented.
	chambers := make(map[contracts.Chamber]int)
	for _, c := range table {
		chambers[c.Chamber]++
	}
	if chambers[contracts.ChamberHouse] == 0 || chambers[contracts.ChamberSenate] == 0 {
		t.Errorf("expected both chambers, got %v", chambers)
	}

	// Every roster starts at the chair.
	for _, c := range table {
		minRank := 0
		for _, m := range c.Members {
			if minRank == 0 || m.Rank < minRank {
				minRank = m.Rank
			}
		}
		if minRank != 1 {
			t.Errorf("%s: expected a rank-1 chair, got min rank %d", c.Name, minRank)
		}
	}
}

func TestBuiltinReturnsCopies(t *testing.T) {
	a := Builtin()
	a[0].Name = "mutated"
	a[0].Tickers[0] = "ZZZZ"
	a[0].Members[0].Rank = 99

	b := Builtin()
	if b[0].Name == "mutated" || b[0].Tickers[0] == "ZZZZ" || b[0].Members[0].Rank == 99 {
		t.Error("mutating one copy leaked into the seed table")
	}
}

func TestLoadEmptyPathFallsBack(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(table) != len(Builtin()) {
		t.Errorf("expected built-in table, got %d committees", len(table))
	}
}

func TestLoadFile(t *testing.T) {
	want := []*contracts.Committee{
		{
			Name:     "Select Committee on Widgets",
			Chamber:  contracts.ChamberHouse,
			Tickers:  []string{"WDG"},
			Keywords: []string{"widget"},
			Members: []contracts.CommitteeMember{
				{Name: "Alice Green", Rank: 1},
				{Name: "Bob Stone", Rank: 2},
			},
		},
	}
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "committees.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 committee, got %d", len(got))
	}
	if got[0].Name != want[0].Name {
		t.Errorf("expected %q, got %q", want[0].Name, got[0].Name)
	}
	if len(got[0].Members) != 2 || got[0].Members[0].Rank != 1 {
		t.Errorf("members did not round-trip: %+v", got[0].Members)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() []*contracts.Committee {
		return []*contracts.Committee{
			{
				Name:     "Armed Services",
				Chamber:  contracts.ChamberSenate,
				Tickers:  []string{"LMT"},
				Keywords: []string{"defense"},
				Members:  []contracts.CommitteeMember{{Name: "Alice Green", Rank: 1}},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func([]*contracts.Committee) []*contracts.Committee
	}{
		{"empty name", func(t []*contracts.Committee) []*contracts.Committee {
			t[0].Name = ""
			return t
		}},
		{"unknown chamber", func(t []*contracts.Committee) []*contracts.Committee {
			t[0].Chamber = "parliament"
			return t
		}},
		{"no jurisdiction", func(t []*contracts.Committee) []*contracts.Committee {
			t[0].Tickers = nil
			t[0].Keywords = nil
			return t
		}},
		{"empty ticker", func(t []*contracts.Committee) []*contracts.Committee {
			t[0].Tickers = []string{""}
			return t
		}},
		{"empty keyword", func(t []*contracts.Committee) []*contracts.Committee {
			t[0].Keywords = []string{""}
			return t
		}},
		{"member without name", func(t []*contracts.Committee) []*contracts.Committee {
			t[0].Members[0].Name = ""
			return t
		}},
		{"zero rank", func(t []*contracts.Committee) []*contracts.Committee {
			t[0].Members[0].Rank = 0
			return t
		}},
		{"duplicate member", func(t []*contracts.Committee) []*contracts.Committee {
			t[0].Members = append(t[0].Members, contracts.CommitteeMember{Name: "Alice Green", Rank: 2})
			return t
		}},
		{"duplicate committee", func(t []*contracts.Committee) []*contracts.Committee {
			return append(t, valid()...)
		}},
	}

	if err := Validate(valid()); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.mutate(valid())); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
