// Package committees provides the jurisdiction table the correlation
// engine consumes: committee names, the tickers and keywords their
// jurisdiction covers, and member rosters with seniority ranks.
//
// The built-in table is a maintained snapshot. Rosters change every
// Congress, so deployments load the current table from COMMITTEE_FILE
// and fall back to the snapshot when no file is configured.
package committees

import (
	"github.com/dcwatch/dcwatch/internal/contracts"
)

// Builtin returns a fresh copy of the built-in jurisdiction table.
// Callers own the result and may mutate it freely.
func Builtin() []*contracts.Committee {
	table := make([]*contracts.Committee, 0, len(builtin))
	for i := range builtin {
		c := builtin[i]
		cp := &contracts.Committee{
			Name:     c.Name,
			Chamber:  c.Chamber,
			Tickers:  append([]string(nil), c.Tickers...),
			Keywords: append([]string(nil), c.Keywords...),
			Members:  append([]contracts.CommitteeMember(nil), c.Members...),
		}
		table = append(table, cp)
	}
	return table
}

// builtin is the seed table. Rank 1 is the chair, rank 2 the ranking
// member, larger ranks are more junior seats.
var builtin = []contracts.Committee{
	{
		Name:     "Senate Armed Services",
		Chamber:  contracts.ChamberSenate,
		Tickers:  []string{"LMT", "NOC", "RTX", "GD", "BA", "HII", "LDOS", "LHX"},
		Keywords: []string{"defense", "aerospace", "military", "munitions", "missile", "radar"},
		Members: []contracts.CommitteeMember{
			{Name: "Roger Wicker", Rank: 1},
			{Name: "Jack Reed", Rank: 2},
			{Name: "Deb Fischer", Rank: 3},
			{Name: "Tom Cotton", Rank: 4},
			{Name: "Tommy Tuberville", Rank: 5},
			{Name: "Markwayne Mullin", Rank: 6},
			{Name: "Rick Scott", Rank: 7},
			{Name: "Kirsten Gillibrand", Rank: 8},
		},
	},
	{
		Name:     "Senate Banking, Housing, and Urban Affairs",
		Chamber:  contracts.ChamberSenate,
		Tickers:  []string{"JPM", "BAC", "WFC", "C", "GS", "MS", "SCHW", "BLK"},
		Keywords: []string{"bank", "banking", "financial", "insurance", "mortgage", "housing", "securities"},
		Members: []contracts.CommitteeMember{
			{Name: "Tim Scott", Rank: 1},
			{Name: "Elizabeth Warren", Rank: 2},
			{Name: "Mike Crapo", Rank: 3},
			{Name: "Katie Britt", Rank: 4},
			{Name: "Mark Warner", Rank: 5},
			{Name: "Raphael Warnock", Rank: 6},
		},
	},
	{
		Name:     "Senate Energy and Natural Resources",
		Chamber:  contracts.ChamberSenate,
		Tickers:  []string{"XOM", "CVX", "COP", "OXY", "SLB", "HAL", "DVN", "FCX"},
		Keywords: []string{"oil", "gas", "energy", "petroleum", "mining", "pipeline", "drilling"},
		Members: []contracts.CommitteeMember{
			{Name: "Mike Lee", Rank: 1},
			{Name: "Martin Heinrich", Rank: 2},
			{Name: "John Barrasso", Rank: 3},
			{Name: "John Hickenlooper", Rank: 4},
			{Name: "Josh Hawley", Rank: 5},
			{Name: "Angus King", Rank: 6},
		},
	},
	{
		Name:     "Senate Health, Education, Labor, and Pensions",
		Chamber:  contracts.ChamberSenate,
		Tickers:  []string{"PFE", "JNJ", "MRK", "LLY", "ABBV", "MRNA", "UNH", "CVS"},
		Keywords: []string{"pharmaceutical", "biotech", "health", "medical", "drug", "hospital", "vaccine"},
		Members: []contracts.CommitteeMember{
			{Name: "Bill Cassidy", Rank: 1},
			{Name: "Bernie Sanders", Rank: 2},
			{Name: "Rand Paul", Rank: 3},
			{Name: "Susan Collins", Rank: 4},
			{Name: "Tammy Baldwin", Rank: 5},
			{Name: "Markwayne Mullin", Rank: 6},
		},
	},
	{
		Name:     "Senate Commerce, Science, and Transportation",
		Chamber:  contracts.ChamberSenate,
		Tickers:  []string{"GOOGL", "META", "AMZN", "AAPL", "T", "VZ", "TMUS", "UAL", "DAL", "UNP"},
		Keywords: []string{"telecom", "broadband", "internet", "airline", "railroad", "shipping", "semiconductor"},
		Members: []contracts.CommitteeMember{
			{Name: "Ted Cruz", Rank: 1},
			{Name: "Maria Cantwell", Rank: 2},
			{Name: "Roger Wicker", Rank: 3},
			{Name: "Amy Klobuchar", Rank: 4},
			{Name: "Gary Peters", Rank: 5},
			{Name: "Tammy Duckworth", Rank: 6},
		},
	},
	{
		Name:     "Senate Agriculture, Nutrition, and Forestry",
		Chamber:  contracts.ChamberSenate,
		Tickers:  []string{"ADM", "BG", "DE", "CTVA", "MOS", "TSN"},
		Keywords: []string{"agriculture", "farm", "crop", "commodity", "livestock", "forestry"},
		Members: []contracts.CommitteeMember{
			{Name: "John Boozman", Rank: 1},
			{Name: "Amy Klobuchar", Rank: 2},
			{Name: "Cindy Hyde-Smith", Rank: 3},
			{Name: "Tommy Tuberville", Rank: 4},
			{Name: "Raphael Warnock", Rank: 5},
		},
	},
	{
		Name:     "House Financial Services",
		Chamber:  contracts.ChamberHouse,
		Tickers:  []string{"JPM", "BAC", "WFC", "C", "GS", "MS", "V", "MA", "COIN"},
		Keywords: []string{"bank", "banking", "financial", "insurance", "fintech", "securities", "crypto"},
		Members: []contracts.CommitteeMember{
			{Name: "French Hill", Rank: 1},
			{Name: "Maxine Waters", Rank: 2},
			{Name: "Frank Lucas", Rank: 3},
			{Name: "Josh Gottheimer", Rank: 4},
			{Name: "Bill Huizenga", Rank: 5},
			{Name: "Sylvia Garcia", Rank: 6},
		},
	},
	{
		Name:     "House Armed Services",
		Chamber:  contracts.ChamberHouse,
		Tickers:  []string{"LMT", "NOC", "RTX", "GD", "BA", "HII", "AVAV"},
		Keywords: []string{"defense", "aerospace", "military", "drone", "shipbuilding", "missile"},
		Members: []contracts.CommitteeMember{
			{Name: "Mike Rogers", Rank: 1},
			{Name: "Adam Smith", Rank: 2},
			{Name: "Ro Khanna", Rank: 3},
			{Name: "Pat Fallon", Rank: 4},
			{Name: "Scott Franklin", Rank: 5},
			{Name: "Seth Moulton", Rank: 6},
		},
	},
	{
		Name:     "House Energy and Commerce",
		Chamber:  contracts.ChamberHouse,
		Tickers:  []string{"XOM", "CVX", "PFE", "JNJ", "CMCSA", "CHTR", "NEE", "DUK"},
		Keywords: []string{"energy", "health", "telecom", "broadband", "utility", "pipeline", "drug"},
		Members: []contracts.CommitteeMember{
			{Name: "Brett Guthrie", Rank: 1},
			{Name: "Frank Pallone", Rank: 2},
			{Name: "Dan Crenshaw", Rank: 3},
			{Name: "Debbie Dingell", Rank: 4},
			{Name: "Jay Obernolte", Rank: 5},
			{Name: "Kathy Castor", Rank: 6},
		},
	},
	{
		Name:     "House Agriculture",
		Chamber:  contracts.ChamberHouse,
		Tickers:  []string{"ADM", "BG", "DE", "CTVA", "MOS", "CF", "TSN"},
		Keywords: []string{"agriculture", "farm", "crop", "fertilizer", "livestock", "grain"},
		Members: []contracts.CommitteeMember{
			{Name: "Glenn Thompson", Rank: 1},
			{Name: "Angie Craig", Rank: 2},
			{Name: "Austin Scott", Rank: 3},
			{Name: "Jim Costa", Rank: 4},
			{Name: "David Rouzer", Rank: 5},
		},
	},
}
