package logparse

import (
	"reflect"
	"strings"
	"testing"
)

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	hashC = "cccccccccccccccccccccccccccccccccccccccc"
	hashD = "dddddddddddddddddddddddddddddddddddddddd"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		log  string
		want []Scenario
	}{
		{
			name: "empty input",
			log:  "",
			want: nil,
		},
		{
			name: "no commit markers",
			log:  "Merge branch 'fixes'\n\n    some message\n",
			want: nil,
		},
		{
			name: "commit with dotted upstream annotation",
			log:  "commit " + hashA + "\n    commit " + hashB + " upstream.\n",
			want: []Scenario{{Commit: hashA, Upstream: hashB}},
		},
		{
			name: "commit with bracketed upstream annotation",
			log:  "commit " + hashA + "\n    [ Upstream commit " + hashB + " ]\n",
			want: []Scenario{{Commit: hashA, Upstream: hashB}},
		},
		{
			name: "commit without upstream annotation is dropped",
			log:  "commit " + hashA + "\n    some unrelated message\n",
			want: nil,
		},
		{
			name: "first upstream annotation wins",
			log: "commit " + hashA + "\n" +
				"    commit " + hashB + " upstream.\n" +
				"    commit " + hashC + " upstream.\n",
			want: []Scenario{{Commit: hashA, Upstream: hashB}},
		},
		{
			name: "multiple commits preserve log order",
			log: "commit " + hashA + "\n" +
				"    commit " + hashB + " upstream.\n" +
				"commit " + hashC + "\n" +
				"    [ Upstream commit " + hashD + " ]\n",
			want: []Scenario{
				{Commit: hashA, Upstream: hashB},
				{Commit: hashC, Upstream: hashD},
			},
		},
		{
			name: "trailing commit without upstream is not flushed",
			log: "commit " + hashA + "\n" +
				"    commit " + hashB + " upstream.\n" +
				"commit " + hashC + "\n" +
				"    no annotation here\n",
			want: []Scenario{{Commit: hashA, Upstream: hashB}},
		},
		{
			name: "short hash is not a commit marker",
			log:  "commit abcdef\n    commit " + hashB + " upstream.\n",
			want: nil,
		},
		{
			name: "annotation before any commit marker is ignored",
			log: "    commit " + hashB + " upstream.\n" +
				"commit " + hashA + "\n",
			want: nil,
		},
		{
			name: "indented lines are trimmed before matching",
			log:  "  commit " + hashA + "  \n\t[ Upstream commit " + hashB + " ]\n",
			want: []Scenario{{Commit: hashA, Upstream: hashB}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.log)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	log := "commit " + hashA + "\n" +
		"    commit " + hashB + " upstream.\n" +
		"commit " + hashC + "\n"

	first := Parse(log)
	second := Parse(log)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parse() not idempotent: %v vs %v", first, second)
	}
}

func TestParseLargeLog(t *testing.T) {
	// Parser should handle a realistic log size without entry loss.
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("commit " + hashA + "\n")
		b.WriteString("Author: Someone <someone@example.com>\n\n")
		b.WriteString("    net: fix refcount leak\n\n")
		b.WriteString("    [ Upstream commit " + hashB + " ]\n\n")
	}

	got := Parse(b.String())
	if len(got) != 500 {
		t.Errorf("Parse() returned %d scenarios, want 500", len(got))
	}
}
