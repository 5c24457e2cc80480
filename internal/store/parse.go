package store

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// A tag is '#' followed by a letter, then word characters. The leading
	// letter keeps issue references like "#1" or "#42" out while still
	// allowing "#nodejs2" or "#v3".
	tagRe = regexp.MustCompile(`#([A-Za-z]\w*)`)

	wikiLinkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)
)

// ExtractTags returns the set of hashtag names in content, lowercased and
// deduplicated. The result is sorted only to make it deterministic.
func ExtractTags(content string) []string {
	seen := map[string]struct{}{}
	var tags []string
	for _, m := range tagRe.FindAllStringSubmatch(content, -1) {
		name := strings.ToLower(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	sort.Strings(tags)
	return tags
}

// ExtractWikiLinks returns the targets of [[Title]] and [[Title|alias]]
// references in content, trimmed, deduplicated case-insensitively, in
// first-seen order.
func ExtractWikiLinks(content string) []string {
	seen := map[string]struct{}{}
	var targets []string
	for _, m := range wikiLinkRe.FindAllStringSubmatch(content, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		key := strings.ToLower(target)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		targets = append(targets, target)
	}
	return targets
}
