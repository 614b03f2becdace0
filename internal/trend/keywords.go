package trend

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// LoadKeywords reads a newline-delimited keyword list, ignoring blank
// lines and # comments.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "trend: open keywords file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var keywords []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token == "" || strings.HasPrefix(token, "#") {
			continue
		}
		keywords = append(keywords, token)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "trend: read keywords file %s", path)
	}
	return keywords, nil
}

// MergeKeywords merges keyword groups preserving order and
// case-insensitive uniqueness.
func MergeKeywords(groups ...[]string) []string {
	var merged []string
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, keyword := range group {
			normalized := strings.TrimSpace(keyword)
			if normalized == "" {
				continue
			}
			key := strings.ToLower(normalized)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, normalized)
		}
	}
	return merged
}
