package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CatchAllPrefix keys the FRESCOS group for items without a "N.M " prefix.
const CatchAllPrefix = "other"

var subsectionPrefixPattern = regexp.MustCompile(`^\s*(\d+\.\d+)\s`)

// SectionKey identifies what a SectionEvaluation rates: a whole section or one
// subsection of it. The persisted form is "{sectionId}" or
// "{sectionId}_{prefix}".
type SectionKey struct {
	SectionID int
	Prefix    string
}

// WholeSection keys a plain section.
func WholeSection(sectionID int) SectionKey {
	return SectionKey{SectionID: sectionID}
}

// Subsection keys a prefix group inside a subsection-bearing section.
func Subsection(sectionID int, prefix string) SectionKey {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = CatchAllPrefix
	}
	return SectionKey{SectionID: sectionID, Prefix: prefix}
}

// IsSubsection reports whether the key addresses a subsection group.
func (k SectionKey) IsSubsection() bool {
	return k.Prefix != ""
}

func (k SectionKey) String() string {
	if k.Prefix == "" {
		return strconv.Itoa(k.SectionID)
	}
	return fmt.Sprintf("%d_%s", k.SectionID, k.Prefix)
}

// ParseSectionKey reads the persisted key form.
func ParseSectionKey(value string) (SectionKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return SectionKey{}, fmt.Errorf("section key is required")
	}
	head, prefix, composite := strings.Cut(value, "_")
	id, err := strconv.Atoi(head)
	if err != nil || id <= 0 {
		return SectionKey{}, fmt.Errorf("invalid section key: %s", value)
	}
	if !composite {
		return WholeSection(id), nil
	}
	if strings.TrimSpace(prefix) == "" {
		return SectionKey{}, fmt.Errorf("invalid section key: %s", value)
	}
	return Subsection(id, prefix), nil
}

// SubsectionPrefix extracts the "N.M" prefix of an item name.
func SubsectionPrefix(itemName string) (string, bool) {
	match := subsectionPrefixPattern.FindStringSubmatch(itemName)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ItemGroup is the set of items rated together under one SectionKey.
type ItemGroup struct {
	Key     SectionKey
	Section Section
	Label   string
	Items   []Item
}

// GroupSection splits a section into rating groups. Only the subsection-bearing
// section is split by prefix; every other section is a single group.
func GroupSection(section Section, policy Policy) []ItemGroup {
	if section.ID != policy.FrescosSectionID {
		return []ItemGroup{{
			Key:     WholeSection(section.ID),
			Section: section,
			Label:   section.Name,
			Items:   section.Items,
		}}
	}

	groups := make([]ItemGroup, 0)
	index := make(map[string]int)
	for _, item := range section.Items {
		prefix, ok := SubsectionPrefix(item.Name)
		if !ok {
			prefix = CatchAllPrefix
		}
		pos, seen := index[prefix]
		if !seen {
			label := prefix
			if prefix == CatchAllPrefix {
				label = section.Name
			}
			groups = append(groups, ItemGroup{
				Key:     Subsection(section.ID, prefix),
				Section: section,
				Label:   label,
			})
			pos = len(groups) - 1
			index[prefix] = pos
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups
}

// GroupIndex maps every rating group of a checklist by its persisted key.
type GroupIndex struct {
	Ordered []ItemGroup
	byKey   map[string]int
}

// GroupChecklist groups every section once for a render or an operation.
func GroupChecklist(checklist Checklist, policy Policy) GroupIndex {
	idx := GroupIndex{byKey: make(map[string]int)}
	for _, section := range checklist.Sections {
		for _, group := range GroupSection(section, policy) {
			idx.byKey[group.Key.String()] = len(idx.Ordered)
			idx.Ordered = append(idx.Ordered, group)
		}
	}
	return idx
}

// Find returns the group stored under key.
func (g GroupIndex) Find(key SectionKey) (ItemGroup, bool) {
	pos, ok := g.byKey[key.String()]
	if !ok {
		return ItemGroup{}, false
	}
	return g.Ordered[pos], true
}

// SectionEvaluation is the remediation record saved for one SectionKey.
type SectionEvaluation struct {
	AuditID     string
	Key         SectionKey
	Rating      *int
	ActionPlan  string
	Responsible string
	DueDate     *time.Time
	AderenteID  string
	StoreID     string
	CreatedBy   string
	UpdatedAt   time.Time
}
