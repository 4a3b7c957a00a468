package requirementcatalog

import (
	"encoding/json"
	"strings"

	dbmodels "barangay-services-backend/models/db"
)

// Parse turns a category's stored requirement list into its structured form.
// Categories created before structured evidence was supported keep a
// comma-separated string, newer ones a JSON array; both must keep working.
// Order: structured parse first, comma split fallback, single item last.
func Parse(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var structured []string
	if err := json.Unmarshal([]byte(raw), &structured); err == nil {
		return trimBlanks(structured)
	}
	if strings.Contains(raw, ",") {
		return trimBlanks(strings.Split(raw, ","))
	}
	return []string{raw}
}

// Serialize persists the structured form going forward.
func Serialize(list []string) string {
	list = trimBlanks(list)
	raw, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func trimBlanks(list []string) []string {
	result := make([]string, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// MissingCategories computes requirement completeness: every required name must
// be covered by at least one attachment. Completeness is always computed, never
// stored.
func MissingCategories(required []string, attachments []dbmodels.EvidenceAttachment) []string {
	present := make(map[string]bool, len(attachments))
	for _, att := range attachments {
		present[normalize(att.CategoryName)] = true
	}
	missing := []string{}
	for _, name := range required {
		if !present[normalize(name)] {
			missing = append(missing, name)
		}
	}
	return missing
}

// GroupByCategory shapes the evidence listing for the per-category view,
// keeping the catalog order and appending ad-hoc slots at the end.
func GroupByCategory(required []string, attachments []dbmodels.EvidenceAttachment) map[string][]dbmodels.EvidenceAttachment {
	grouped := make(map[string][]dbmodels.EvidenceAttachment, len(required))
	for _, name := range required {
		grouped[name] = []dbmodels.EvidenceAttachment{}
	}
	for _, att := range attachments {
		matched := false
		for _, name := range required {
			if normalize(name) == normalize(att.CategoryName) {
				grouped[name] = append(grouped[name], att)
				matched = true
				break
			}
		}
		if !matched {
			grouped[att.CategoryName] = append(grouped[att.CategoryName], att)
		}
	}
	return grouped
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
