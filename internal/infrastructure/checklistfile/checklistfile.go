// Package checklistfile reads checklist definitions from YAML files.
package checklistfile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

type checklistFile struct {
	ID         int           `yaml:"id"`
	Name       string        `yaml:"name"`
	TargetRole string        `yaml:"target_role"`
	Sections   []sectionFile `yaml:"sections"`
}

type sectionFile struct {
	ID          int        `yaml:"id"`
	Name        string     `yaml:"name"`
	OrderIndex  int        `yaml:"order_index"`
	IsMandatory bool       `yaml:"is_mandatory"`
	Items       []itemFile `yaml:"items"`
}

type itemFile struct {
	ID       int             `yaml:"id"`
	Name     string          `yaml:"name"`
	Criteria []criterionFile `yaml:"criteria"`
}

type criterionFile struct {
	ID                int      `yaml:"id"`
	Name              string   `yaml:"name"`
	Weight            *float64 `yaml:"weight"`
	Type              string   `yaml:"type"`
	EvaluationType    string   `yaml:"evaluation_type"`
	RequiresPhotoOnKO bool     `yaml:"requires_photo_on_ko"`
}

// Parse decodes and validates one checklist. Sections are ordered by
// order_index, then by id; weight defaults to 1.
func Parse(data []byte) (domain.Checklist, error) {
	var doc checklistFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Checklist{}, errors.Wrap(err, "decode checklist yaml")
	}

	checklist := domain.Checklist{ID: doc.ID, Name: strings.TrimSpace(doc.Name)}
	if doc.TargetRole != "" {
		role, err := domain.NewRole(doc.TargetRole)
		if err != nil {
			return domain.Checklist{}, errors.Wrapf(err, "checklist %d", doc.ID)
		}
		checklist.TargetRole = role
	}

	for _, s := range doc.Sections {
		section := domain.Section{
			ID:          s.ID,
			Name:        strings.TrimSpace(s.Name),
			OrderIndex:  s.OrderIndex,
			IsMandatory: s.IsMandatory,
		}
		for _, i := range s.Items {
			item := domain.Item{ID: i.ID, Name: i.Name}
			for _, c := range i.Criteria {
				criterion, err := parseCriterion(c)
				if err != nil {
					return domain.Checklist{}, errors.Wrapf(err, "checklist %d section %d", doc.ID, s.ID)
				}
				item.Criteria = append(item.Criteria, criterion)
			}
			section.Items = append(section.Items, item)
		}
		checklist.Sections = append(checklist.Sections, section)
	}
	sort.SliceStable(checklist.Sections, func(i, j int) bool {
		a, b := checklist.Sections[i], checklist.Sections[j]
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex < b.OrderIndex
		}
		return a.ID < b.ID
	})

	if err := checklist.Validate(); err != nil {
		return domain.Checklist{}, err
	}
	return checklist, nil
}

func parseCriterion(c criterionFile) (domain.Criterion, error) {
	kind, err := domain.NewCriterionKind(c.Type)
	if err != nil {
		return domain.Criterion{}, errors.Wrapf(err, "criterion %d", c.ID)
	}
	evalType, err := domain.NewEvaluationType(c.EvaluationType)
	if err != nil {
		return domain.Criterion{}, errors.Wrapf(err, "criterion %d", c.ID)
	}
	weight := 1.0
	if c.Weight != nil {
		weight = *c.Weight
	}
	return domain.Criterion{
		ID:                c.ID,
		Name:              strings.TrimSpace(c.Name),
		Weight:            weight,
		Kind:              kind,
		EvaluationType:    evalType,
		RequiresPhotoOnKO: c.RequiresPhotoOnKO,
	}, nil
}

// Load reads one checklist file.
func Load(path string) (domain.Checklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Checklist{}, errors.Wrapf(err, "read %s", path)
	}
	checklist, err := Parse(data)
	if err != nil {
		return domain.Checklist{}, errors.Wrapf(err, "parse %s", path)
	}
	return checklist, nil
}

// Provider serves every checklist found in a directory. Files are read once.
type Provider struct {
	checklists map[int]domain.Checklist
}

// NewProvider loads every *.yaml and *.yml file in dir.
func NewProvider(dir string) (*Provider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read checklist dir %s", dir)
	}
	p := &Provider{checklists: make(map[int]domain.Checklist)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		checklist, err := Load(path)
		if err != nil {
			return nil, err
		}
		if _, dup := p.checklists[checklist.ID]; dup {
			return nil, errors.Errorf("checklist %d defined twice (%s)", checklist.ID, path)
		}
		p.checklists[checklist.ID] = checklist
	}
	return p, nil
}

// Checklist implements application.ChecklistProvider.
func (p *Provider) Checklist(_ context.Context, id int) (*domain.Checklist, error) {
	checklist, ok := p.checklists[id]
	if !ok {
		return nil, errors.Wrapf(application.ErrChecklistNotFound, "checklist %d", id)
	}
	return &checklist, nil
}

// IDs lists the loaded checklist ids in ascending order.
func (p *Provider) IDs() []int {
	ids := make([]int, 0, len(p.checklists))
	for id := range p.checklists {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
