// Package extract locates chart data inside IMDb page markup. Two scanner
// strategies exist: a DOM walk built on goquery and a raw-markup regex pass.
// Both feed the same merge step, so swapping strategies never changes the
// record shape.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
)

// RankIndex maps a title identifier (tt1234567) to its canonical chart rank.
type RankIndex map[string]int

// ItemList holds the decoded structured-data block describing the chart.
// Elements stay loosely typed; the merge step applies the minimal shape
// rules.
type ItemList struct {
	Elements []any
}

// ListScan reports the outcome of a structured-data pass over one page.
type ListScan struct {
	// List is the first qualifying ItemList block, nil when none qualifies.
	List *ItemList
	// Blocks counts every ld+json block on the page, qualifying or not.
	Blocks int
	// Malformed counts blocks that failed to decode before a qualifying
	// block was found.
	Malformed int
}

// RankScanner recovers canonical chart ranks from page markup.
type RankScanner interface {
	ScanRanks(body []byte) RankIndex
}

// ListScanner locates the chart's structured-data payload.
type ListScanner interface {
	ScanList(body []byte) ListScan
}

// Scanner combines both extraction passes over one body.
type Scanner interface {
	RankScanner
	ListScanner
}

// Strategy names accepted by ForStrategy.
const (
	StrategyDOM   = "dom"
	StrategyRegex = "regex"
)

// ForStrategy returns the scanner registered under name. An empty name
// selects the DOM strategy.
func ForStrategy(name string) (Scanner, error) {
	switch name {
	case StrategyDOM, "":
		return NewDOMScanner(), nil
	case StrategyRegex:
		return NewRegexScanner(), nil
	default:
		return nil, fmt.Errorf("unknown parser strategy %q", name)
	}
}

var (
	rankedTitlePattern = regexp.MustCompile(`/title/(tt\d+)/\?ref_=chttp_t_(\d+)`)
	titleIDPattern     = regexp.MustCompile(`/title/(tt\d+)/`)
)

// DeriveID pulls the title identifier out of a title URL.
func DeriveID(url string) (string, bool) {
	m := titleIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// decodeBlock parses one ld+json payload into a JSON object. Numbers stay as
// json.Number so rating text survives re-encoding unchanged. Payloads with
// trailing garbage are rejected, matching a strict one-document parse.
func decodeBlock(raw []byte) (map[string]any, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if err := dec.Decode(new(any)); err != io.EOF {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return obj, true
}

// qualifies reports whether the block is the chart's ItemList payload. The
// itemListElement key only needs to exist; its shape is checked during merge.
func qualifies(obj map[string]any) bool {
	t, _ := obj["@type"].(string)
	if t != "ItemList" {
		return false
	}
	_, ok := obj["itemListElement"]
	return ok
}

func elementsOf(obj map[string]any) []any {
	list, _ := obj["itemListElement"].([]any)
	return list
}
