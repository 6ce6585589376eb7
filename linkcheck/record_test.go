package linkcheck

import (
	check "gopkg.in/check.v1"
)

// Initialize and register pointer instances of test suites to be
// executed by check testing package.
var (
	_ = check.Suite(new(linkExtractionTestSuite))
	_ = check.Suite(new(fingerprintTestSuite))
)

type linkExtractionTestSuite struct{}

func (s *linkExtractionTestSuite) TestExtractionInDocumentOrder(c *check.C) {
	content := `
<html>
<body>
	<p>See <a href="http://example.com/a">first</a> and
	<a href="http://example.com/b">second</a> links.</p>
	<a href="http://example.com/c">third</a>
</body>
</html>
`
	records := ExtractLinks(content)

	c.Assert(records, check.HasLen, 3)
	c.Assert(records[0].URL, check.Equals, "http://example.com/a")
	c.Assert(records[1].URL, check.Equals, "http://example.com/b")
	c.Assert(records[2].URL, check.Equals, "http://example.com/c")
	c.Assert(records[0].RawTag, check.Equals, "first")
}

func (s *linkExtractionTestSuite) TestExtractionStripsNestedMarkup(c *check.C) {
	content := `<a href="http://example.com"><strong>Bold</strong> &amp; plain</a>`

	records := ExtractLinks(content)

	c.Assert(records, check.HasLen, 1)
	c.Assert(records[0].RawTag, check.Equals, "Bold & plain",
		check.Commentf("Nested markup should be stripped from the tag text"),
	)
}

func (s *linkExtractionTestSuite) TestExtractionSkipsEmptyHref(c *check.C) {
	content := `<a href="">empty</a><a href="http://example.com">kept</a>`

	records := ExtractLinks(content)

	c.Assert(records, check.HasLen, 1)
	c.Assert(records[0].URL, check.Equals, "http://example.com")
}

func (s *linkExtractionTestSuite) TestAnchorClassification(c *check.C) {
	content := `
<a href="#top">Top</a>
<a href="/page#section">Section</a>
<a href="http://example.com/page#section">Remote section</a>
<a href="http://example.com/page">Remote page</a>
`
	records := ExtractLinks(content)

	c.Assert(records, check.HasLen, 4)
	c.Assert(records[0].IsAnchor, check.Equals, true)
	c.Assert(records[1].IsAnchor, check.Equals, true,
		check.Commentf("A fragment without an http prefix is a same-page reference"),
	)
	c.Assert(records[2].IsAnchor, check.Equals, false,
		check.Commentf("An absolute url with a fragment still targets a remote page"),
	)
	c.Assert(records[3].IsAnchor, check.Equals, false)
}

func (s *linkExtractionTestSuite) TestExtractionFromMalformedMarkup(c *check.C) {
	// A permissive scan yields whatever well-formed anchors it can
	// find and never fails on arbitrary text.
	content := `<<<>>> <a href="http://example.com">ok</a> <a href="http://broken`

	records := ExtractLinks(content)

	c.Assert(records, check.HasLen, 1)
	c.Assert(records[0].URL, check.Equals, "http://example.com")
}

func (s *linkExtractionTestSuite) TestExtractionFromEmptyMarkup(c *check.C) {
	c.Assert(ExtractLinks(""), check.HasLen, 0)
}

type fingerprintTestSuite struct{}

func (s *fingerprintTestSuite) TestFingerprintIsStable(c *check.C) {
	links := []LinkRecord{
		{URL: "http://example.com/a", RawTag: "first"},
		{URL: "http://example.com/b", RawTag: "second"},
	}

	c.Assert(Fingerprint(links), check.Equals, Fingerprint(links))
}

func (s *fingerprintTestSuite) TestFingerprintChangesOnSingleEdit(c *check.C) {
	links := []LinkRecord{
		{URL: "http://example.com/a", RawTag: "first"},
		{URL: "http://example.com/b", RawTag: "second"},
	}

	urlEdit := []LinkRecord{
		{URL: "http://example.com/a2", RawTag: "first"},
		{URL: "http://example.com/b", RawTag: "second"},
	}

	tagEdit := []LinkRecord{
		{URL: "http://example.com/a", RawTag: "first!"},
		{URL: "http://example.com/b", RawTag: "second"},
	}

	c.Assert(Fingerprint(urlEdit), check.Not(check.Equals), Fingerprint(links))
	c.Assert(Fingerprint(tagEdit), check.Not(check.Equals), Fingerprint(links))
}

func (s *fingerprintTestSuite) TestFingerprintIsOrderSensitive(c *check.C) {
	links := []LinkRecord{
		{URL: "http://example.com/a", RawTag: "first"},
		{URL: "http://example.com/b", RawTag: "second"},
	}

	reversed := []LinkRecord{links[1], links[0]}

	c.Assert(Fingerprint(reversed), check.Not(check.Equals), Fingerprint(links))
}

func (s *fingerprintTestSuite) TestFingerprintIgnoresAnchorFlag(c *check.C) {
	// The anchor classification is derived from the url and must not
	// affect the digest.
	links := []LinkRecord{{URL: "#top", RawTag: "Top", IsAnchor: true}}
	same := []LinkRecord{{URL: "#top", RawTag: "Top", IsAnchor: false}}

	c.Assert(Fingerprint(links), check.Equals, Fingerprint(same))
}
