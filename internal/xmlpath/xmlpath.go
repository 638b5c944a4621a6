// Package xmlpath provides namespace-agnostic path lookups over etree
// documents. Portal documents mix gmd/gml/gco/param prefixes that are not
// guaranteed stable, so elements are matched on local names only.
package xmlpath

import (
	"strings"

	"github.com/beevik/etree"
)

// Children returns the child elements of el whose local name equals tag.
func Children(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

// FindAll walks a slash-separated path of local names (prefixes allowed and
// ignored) and returns every element reachable along it.
func FindAll(root *etree.Element, path string) []*etree.Element {
	current := []*etree.Element{root}
	for _, step := range strings.Split(path, "/") {
		tag := localName(step)
		var next []*etree.Element
		for _, el := range current {
			next = append(next, Children(el, tag)...)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// Find returns the first element reachable along path, or nil.
func Find(root *etree.Element, path string) *etree.Element {
	els := FindAll(root, path)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// Texts collects the trimmed text of every element reachable along path,
// skipping empty values.
func Texts(root *etree.Element, path string) []string {
	var out []string
	for _, el := range FindAll(root, path) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func localName(step string) string {
	if i := strings.IndexByte(step, ':'); i >= 0 {
		return step[i+1:]
	}
	return step
}
