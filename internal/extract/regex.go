package extract

import (
	"regexp"
	"strconv"
)

// ldjsonScriptPattern captures ld+json script bodies. Case-insensitive and
// dot-matches-newline so minified or reformatted markup still matches.
var ldjsonScriptPattern = regexp.MustCompile(`(?is)<script[^>]*type="application/ld\+json"[^>]*>(.*?)</script>`)

// RegexScanner extracts chart data by pattern-matching raw markup. It needs
// no DOM construction, which keeps it useful for truncated or slightly
// malformed pages.
type RegexScanner struct{}

// NewRegexScanner returns a scanner that works on raw markup.
func NewRegexScanner() *RegexScanner {
	return &RegexScanner{}
}

// ScanRanks collects every ranked title link. The first occurrence of a
// title wins; later duplicates are ignored.
func (s *RegexScanner) ScanRanks(body []byte) RankIndex {
	index := RankIndex{}
	for _, m := range rankedTitlePattern.FindAllSubmatch(body, -1) {
		id := string(m[1])
		if _, seen := index[id]; seen {
			continue
		}
		rank, err := strconv.Atoi(string(m[2]))
		if err != nil {
			continue
		}
		index[id] = rank
	}
	return index
}

// ScanList walks ld+json blocks in document order and keeps the first one
// that qualifies as the chart's ItemList.
func (s *RegexScanner) ScanList(body []byte) ListScan {
	matches := ldjsonScriptPattern.FindAllSubmatch(body, -1)
	scan := ListScan{Blocks: len(matches)}
	for _, m := range matches {
		obj, ok := decodeBlock(m[1])
		if !ok {
			scan.Malformed++
			continue
		}
		if !qualifies(obj) {
			continue
		}
		scan.List = &ItemList{Elements: elementsOf(obj)}
		break
	}
	return scan
}
