/*
	linkcheck package implements an incremental link-health checking
	engine for editable documents. The engine covers the following
	concerns:
		1. Extracting link records from raw document markup.
		2. Probing each link target for reachability.
		3. Fingerprinting link sets so that unchanged documents can be
		re-validated without issuing a single probe.
		4. Merging previously persisted broken-link sets with freshly
		probed results, evicting entries for links that have left the
		document.
		5. Running exhaustive checks, either concurrently for
		interactive callers or sequentially under a wall-clock budget
		for background batch runs.
*/

package linkcheck

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Locate <a href="xxx">yyy</a> tags and capture the href attribute
	// value and the tag inner markup.
	findLinkRegex = regexp.MustCompile(
		`(?is)<a[^>]*?href\s*?=\s*?"\s*?(.*?)\s*?"[^>]*?>(.*?)</a\s*?>`,
	)
	repeatedSpaceRegex = regexp.MustCompile(`\s+`)

	policyPool = sync.Pool{
		New: func() interface{} {
			return bluemonday.StrictPolicy()
		},
	}
)

// LinkRecord represents a single hyperlink extracted from document
// markup. Records are immutable once extracted.
type LinkRecord struct {
	// URL is the link target exactly as it appears in the href
	// attribute.
	URL string

	// RawTag is the plain-text label of the anchor tag, stripped of
	// any nested markup.
	RawTag string

	// IsAnchor is true when the link is a same-page fragment
	// reference. Such links are always treated as healthy since they
	// cannot be cheaply verified without rendering the page.
	IsAnchor bool
}

// ExtractLinks scans raw markup and returns one link record per
// anchor tag found, in document order. Tags with an empty or missing
// href attribute are skipped. The scan is permissive: malformed markup
// simply yields whatever well-formed anchors it contains and never
// fails on arbitrary text.
func ExtractLinks(markup string) []LinkRecord {
	var records []LinkRecord

	policy := policyPool.Get().(*bluemonday.Policy)
	defer policyPool.Put(policy)

	for _, match := range findLinkRegex.FindAllStringSubmatch(markup, -1) {
		href := match[1]
		if href == "" {
			continue
		}

		cleanTag := repeatedSpaceRegex.ReplaceAllString(
			policy.Sanitize(match[2]), " ",
		)

		records = append(records, LinkRecord{
			URL:      href,
			RawTag:   strings.TrimSpace(html.UnescapeString(cleanTag)),
			IsAnchor: isAnchorRef(href),
		})
	}

	return records
}

// isAnchorRef reports whether an href points to a fragment within the
// same page. A leading '#' is the common case; hrefs that embed a '#'
// without any http(s) prefix are treated the same way.
func isAnchorRef(href string) bool {
	if strings.HasPrefix(href, "#") {
		return true
	}

	return strings.Contains(href, "#") && !strings.Contains(href, "http")
}
