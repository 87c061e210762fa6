package view

import (
	"net/url"
	"path"
	"strings"
)

func splitPath(p string) []string {
	parts := []string{}
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

// ExtractBaseURL reduces any url inside a course to its canonical base
// form, https://host/course/<slug>, by dropping every path segment
// past the slug. Urls that aren't course urls come back untouched.
// Idempotent.
func ExtractBaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parts := splitPath(u.Path)
	if len(parts) < 2 || parts[0] != "course" {
		return raw
	}
	u.Path = "/" + path.Join(parts[0], parts[1])
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// CourseSlug returns the <slug> of /course/<slug> urls, "" otherwise.
func CourseSlug(raw string) string {
	u, err := url.Parse(ExtractBaseURL(raw))
	if err != nil {
		return ""
	}
	parts := splitPath(u.Path)
	if len(parts) < 2 || parts[0] != "course" {
		return ""
	}
	return parts[1]
}

// TaskID returns the platform id of /course/<slug>/task/<id> urls,
// "" otherwise.
func TaskID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := splitPath(u.Path)
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "task" {
			return parts[i+1]
		}
	}
	return ""
}
