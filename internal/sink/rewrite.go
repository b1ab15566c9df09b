package sink

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	rwWikiEmbed = regexp.MustCompile(`!\[\[(.*?)\]\]`)
	rwMdImage   = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	rwWikiLink  = regexp.MustCompile(`\[\[(.*?)\]\]`)
	rwMdLink    = regexp.MustCompile(`([^!]|^)\[([^\]]*)\]\(([^)]+)\)`)
)

// RewriteSecretBody prepares a secret note body for the blob store:
// image embeds are redirected to the store keyed by the raw reference
// text, and page links become flat root-relative paths. Links are not
// resolved through other notes' identifiers.
func RewriteSecretBody(body, storeBaseURL string) string {
	base := strings.TrimRight(storeBaseURL, "/")

	out := rwWikiEmbed.ReplaceAllStringFunc(body, func(m string) string {
		ref := strings.TrimSpace(rwWikiEmbed.FindStringSubmatch(m)[1])
		if i := strings.Index(ref, "|"); i >= 0 {
			ref = strings.TrimSpace(ref[:i])
		}
		return fmt.Sprintf("![%s](%s/%s)", ref, base, url.PathEscape(ref))
	})

	out = rwMdImage.ReplaceAllStringFunc(out, func(m string) string {
		sub := rwMdImage.FindStringSubmatch(m)
		alt, target := sub[1], strings.TrimSpace(sub[2])
		if isAbsolute(target) {
			return m
		}
		return fmt.Sprintf("![%s](%s/%s)", alt, base, url.PathEscape(target))
	})

	out = rwWikiLink.ReplaceAllStringFunc(out, func(m string) string {
		raw := rwWikiLink.FindStringSubmatch(m)[1]
		target, display := raw, raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target, display = raw[:i], raw[i+1:]
		}
		target = strings.TrimSpace(target)
		display = strings.TrimSpace(display)
		if target == "" {
			return m
		}
		return fmt.Sprintf("[%s](/%s)", display, rootPath(target))
	})

	out = rwMdLink.ReplaceAllStringFunc(out, func(m string) string {
		sub := rwMdLink.FindStringSubmatch(m)
		prefix, display, target := sub[1], sub[2], strings.TrimSpace(sub[3])
		if isAbsolute(target) || strings.HasPrefix(target, "/") {
			return m
		}
		return fmt.Sprintf("%s[%s](/%s)", prefix, display, rootPath(target))
	})

	return out
}

func isAbsolute(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// rootPath is the site path of a page target: markdown extension
// stripped, spaces escaped.
func rootPath(target string) string {
	return url.PathEscape(strings.TrimSuffix(target, ".md"))
}
