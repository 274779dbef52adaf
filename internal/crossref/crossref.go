// Package crossref finds reference keys such as ticket ids and invoice
// numbers (PROJ-123, INV-2291) in email text and links emails that share
// them.
package crossref

import (
	"regexp"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// keyPattern matches upper-case prefixed reference keys (e.g., OPS-42, INV-2291).
var keyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`)

// ExtractKeys extracts all reference key matches from text.
// Returns a deduplicated list preserving the order of first occurrence.
func ExtractKeys(text string) []string {
	matches := keyPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var result []string
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		result = append(result, m)
	}
	return result
}

// EmailKeys extracts reference keys from an email's subject and body.
func EmailKeys(e model.Email) []string {
	return ExtractKeys(e.Subject + " " + e.Body)
}

// Related returns the other emails that mention any key found in target,
// in the order given.
func Related(target model.Email, emails []model.Email) []model.Email {
	keys := EmailKeys(target)
	if len(keys) == 0 {
		return nil
	}

	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	var related []model.Email
	for _, e := range emails {
		if e.ID == target.ID {
			continue
		}
		for _, k := range EmailKeys(e) {
			if want[k] {
				related = append(related, e)
				break
			}
		}
	}
	return related
}
