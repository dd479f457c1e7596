// Package logparse extracts conflict scenarios from git log output.
//
// Stable-branch maintainers annotate backported commits with the hash of
// the upstream commit they were cherry-picked from. The parser pairs each
// commit in the log with its upstream annotation so the backtest can
// replay the cherry-pick that originally produced the conflict.
package logparse

import (
	"regexp"
	"strings"
)

var (
	// commitMarker matches the header line that starts each log entry.
	commitMarker = regexp.MustCompile(`^commit ([a-f0-9]{40})$`)

	// upstreamPatterns match the two annotation styles used in stable
	// commit messages. Order matters only within a single line.
	upstreamPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^commit ([a-f0-9]{40}) upstream\.$`),
		regexp.MustCompile(`^\[ Upstream commit ([a-f0-9]{40}) \]$`),
	}
)

// Scenario is one replayable conflict: the stable commit that was the
// result of a manual resolution, and the upstream commit whose
// cherry-pick produced the conflict.
type Scenario struct {
	Commit   string `json:"commit"`
	Upstream string `json:"upstream"`
}

// Parse scans git log text and returns scenarios in log order.
//
// A "commit <hash>" line starts a new entry. Within an entry, the first
// line matching an upstream annotation sets the upstream hash; later
// matches are ignored. Entries without an upstream annotation are
// dropped. Parse is a pure function of its input and never fails;
// malformed input simply yields fewer scenarios.
func Parse(log string) []Scenario {
	var (
		scenarios []Scenario
		commit    string
		upstream  string
	)

	flush := func() {
		// Only entries whose own upstream annotation was seen are kept.
		if commit != "" && upstream != "" {
			scenarios = append(scenarios, Scenario{Commit: commit, Upstream: upstream})
		}
	}

	for _, line := range strings.Split(log, "\n") {
		line = strings.TrimSpace(line)

		if m := commitMarker.FindStringSubmatch(line); m != nil {
			flush()
			commit = m[1]
			upstream = ""
			continue
		}

		if upstream != "" {
			continue
		}
		for _, p := range upstreamPatterns {
			if m := p.FindStringSubmatch(line); m != nil {
				upstream = m[1]
				break
			}
		}
	}
	flush()

	return scenarios
}
