package extract

import "testing"

func TestRegexScanListAttributeVariants(t *testing.T) {
	t.Parallel()

	page := `<html><head>
<script id="ld" type="application/ld+json" nonce="abc123">
{"@type": "ItemList",
 "itemListElement": []}
</script>
</head></html>`

	scan := NewRegexScanner().ScanList([]byte(page))
	if scan.Blocks != 1 || scan.List == nil {
		t.Fatalf("expected surrounded attributes and a multiline body to match, got %+v", scan)
	}
}

func TestRegexScanListRequiresDoubleQuotedType(t *testing.T) {
	t.Parallel()

	page := `<html><head><script type='application/ld+json'>{"@type":"ItemList","itemListElement":[]}</script></head></html>`

	scan := NewRegexScanner().ScanList([]byte(page))
	if scan.Blocks != 0 || scan.List != nil {
		t.Fatalf("expected single-quoted type attribute to be invisible to the raw-markup pass, got %+v", scan)
	}
}

func TestRegexScanRanksIgnoresUnrankedLinks(t *testing.T) {
	t.Parallel()

	page := `<body>
<a href="/title/tt0111161/">plain title link</a>
<a href="/title/tt0068646/?ref_=chttp_t_2">ranked</a>
<a href="/chart/top/?ref_=chttp_t_9">not a title</a>
</body>`

	index := NewRegexScanner().ScanRanks([]byte(page))
	if len(index) != 1 || index["tt0068646"] != 2 {
		t.Fatalf("expected only the ranked title link, got %v", index)
	}
}
