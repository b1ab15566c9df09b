package render

import "regexp"

// The rendered fragment is post-processed for self-hosted documents:
// anchors lose embed-oriented attributes, host resource URLs become
// root-relative, and interactive affordances are stripped.

var (
	anchorAttrRe = regexp.MustCompile(`\s+(?:target|rel)="[^"]*"`)
	resourceRe   = regexp.MustCompile(`app://[^/"' ]+/`)
	copyButtonRe = regexp.MustCompile(`(?s)<button[^>]*copy[^>]*>.*?</button>`)
)

// stripAnchorAttrs removes target and rel attributes from anchors.
func stripAnchorAttrs(html string) string {
	return anchorAttrRe.ReplaceAllString(html, "")
}

// rewriteResourceURLs turns host-internal resource URLs (app://<host>/x)
// into root-relative paths (/x).
func rewriteResourceURLs(html string) string {
	return resourceRe.ReplaceAllString(html, "/")
}

// removeCopyButtons drops copy-code affordances; they are meaningless in
// a static document.
func removeCopyButtons(html string) string {
	return copyButtonRe.ReplaceAllString(html, "")
}
