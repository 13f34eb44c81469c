package extract

import (
	"bytes"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// DOMScanner extracts chart data by walking a parsed document. It tolerates
// attribute reordering and quoting differences that defeat raw-markup
// patterns, at the cost of building the full node tree.
type DOMScanner struct{}

// NewDOMScanner returns a scanner backed by a goquery document walk.
func NewDOMScanner() *DOMScanner {
	return &DOMScanner{}
}

// ScanRanks visits every anchor and keeps the first ranked-title match per
// title identifier.
func (s *DOMScanner) ScanRanks(body []byte) RankIndex {
	index := RankIndex{}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return index
	}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := rankedTitlePattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		if _, seen := index[id]; seen {
			return
		}
		rank, err := strconv.Atoi(m[2])
		if err != nil {
			return
		}
		index[id] = rank
	})
	return index
}

// ScanList walks ld+json script nodes in document order and keeps the first
// qualifying ItemList.
func (s *DOMScanner) ScanList(body []byte) ListScan {
	var scan ListScan
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return scan
	}
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		scan.Blocks++
		if scan.List != nil {
			return
		}
		obj, ok := decodeBlock([]byte(sel.Text()))
		if !ok {
			scan.Malformed++
			return
		}
		if !qualifies(obj) {
			return
		}
		scan.List = &ItemList{Elements: elementsOf(obj)}
	})
	return scan
}
