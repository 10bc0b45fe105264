package captcha

import "strings"

// PrepareHostName strips a leading http:// or https:// and any surrounding slashes.
func PrepareHostName(hostName string) string {
	switch {
	case strings.HasPrefix(hostName, "https://"):
		hostName = hostName[len("https://"):]
	case strings.HasPrefix(hostName, "http://"):
		hostName = hostName[len("http://"):]
	}
	return strings.Trim(hostName, "/")
}

// PrepareHostNames normalizes names and drops empties and duplicates, keeping
// first-seen order.
func PrepareHostNames(names ...string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = PrepareHostName(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
