package mongo

import (
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

func mapAuditDocument(doc AuditDocument) (domain.Audit, error) {
	status, err := domain.StatusFromCode(doc.Status)
	if err != nil {
		return domain.Audit{}, errors.Wrapf(err, "audit %s", doc.ID.Hex())
	}
	source, err := domain.NewVisitSource(doc.VisitSource)
	if err != nil {
		return domain.Audit{}, errors.Wrapf(err, "audit %s", doc.ID.Hex())
	}
	return domain.Audit{
		ID:              doc.ID.Hex(),
		StoreID:         doc.StoreID,
		ChecklistID:     doc.ChecklistID,
		DotUserID:       doc.DotUserID,
		CreatedBy:       doc.CreatedBy,
		Status:          status,
		DtStart:         doc.DtStart,
		DtEnd:           doc.DtEnd,
		AuditorComments: doc.AuditorComments,
		FinalScore:      doc.FinalScore,
		VisitSource:     source,
		ReplacedBy:      doc.ReplacedBy,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

func toAuditDocument(audit domain.Audit) AuditDocument {
	doc := AuditDocument{
		StoreID:         strings.TrimSpace(audit.StoreID),
		ChecklistID:     audit.ChecklistID,
		DotUserID:       strings.TrimSpace(audit.DotUserID),
		CreatedBy:       strings.TrimSpace(audit.CreatedBy),
		Status:          int(audit.Status),
		DtStart:         audit.DtStart.UTC(),
		DtEnd:           audit.DtEnd,
		AuditorComments: audit.AuditorComments,
		FinalScore:      audit.FinalScore,
		VisitSource:     string(audit.VisitSource),
		ReplacedBy:      audit.ReplacedBy,
	}
	if id, err := primitive.ObjectIDFromHex(audit.ID); err == nil {
		doc.ID = id
	}
	if doc.Status == 0 {
		doc.Status = int(domain.StatusNew)
	}
	return doc
}

// mapScoreDocument reads a ledger row leniently: an unknown evaluation type is
// treated as OK/KO and a value outside its range as unscored.
func mapScoreDocument(doc AuditScoreDocument) domain.AuditScore {
	evalType, err := domain.NewEvaluationType(doc.EvaluationType)
	if err != nil {
		evalType = domain.EvaluationOKKO
	}
	return domain.AuditScore{
		AuditID:        doc.AuditID.Hex(),
		CriterionID:    doc.CriteriaID,
		Score:          domain.ScoreFromStored(evalType, doc.Value),
		Comment:        doc.Comment,
		Photos:         domain.PhotoList(append([]string{}, doc.Photos...)),
		EvaluationType: evalType,
		RequiresPhoto:  doc.RequiresPhoto,
	}
}

func mapSectionEvaluationDocument(doc SectionEvaluationDocument) (domain.SectionEvaluation, error) {
	key, err := domain.ParseSectionKey(doc.SectionKey)
	if err != nil {
		return domain.SectionEvaluation{}, err
	}
	return domain.SectionEvaluation{
		AuditID:     doc.AuditID.Hex(),
		Key:         key,
		Rating:      doc.Rating,
		ActionPlan:  doc.ActionPlan,
		Responsible: doc.Responsible,
		DueDate:     doc.DueDate,
		AderenteID:  doc.AderenteID,
		StoreID:     doc.StoreID,
		CreatedBy:   doc.CreatedBy,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func mapChecklistDocument(doc ChecklistDocument) (domain.Checklist, error) {
	checklist := domain.Checklist{
		ID:       doc.ID,
		Name:     doc.Name,
		Sections: make([]domain.Section, 0, len(doc.Sections)),
	}
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
			Name:        s.Name,
			OrderIndex:  s.OrderIndex,
			IsMandatory: s.IsMandatory,
			Items:       make([]domain.Item, 0, len(s.Items)),
		}
		for _, i := range s.Items {
			item := domain.Item{ID: i.ID, Name: i.Name, Criteria: make([]domain.Criterion, 0, len(i.Criteria))}
			for _, c := range i.Criteria {
				kind, err := domain.NewCriterionKind(c.Type)
				if err != nil {
					return domain.Checklist{}, errors.Wrapf(err, "checklist %d criterion %d", doc.ID, c.ID)
				}
				evalType, err := domain.NewEvaluationType(c.EvaluationType)
				if err != nil {
					return domain.Checklist{}, errors.Wrapf(err, "checklist %d criterion %d", doc.ID, c.ID)
				}
				item.Criteria = append(item.Criteria, domain.Criterion{
					ID:                c.ID,
					Name:              c.Name,
					Weight:            c.Weight,
					Kind:              kind,
					EvaluationType:    evalType,
					RequiresPhotoOnKO: c.RequiresPhotoOnKO,
				})
			}
			section.Items = append(section.Items, item)
		}
		checklist.Sections = append(checklist.Sections, section)
	}
	return checklist, nil
}

func toChecklistDocument(checklist domain.Checklist) ChecklistDocument {
	doc := ChecklistDocument{
		ID:         checklist.ID,
		Name:       checklist.Name,
		TargetRole: string(checklist.TargetRole),
		Sections:   make([]ChecklistSectionDocument, 0, len(checklist.Sections)),
	}
	for _, s := range checklist.Sections {
		section := ChecklistSectionDocument{
			ID:          s.ID,
			Name:        s.Name,
			OrderIndex:  s.OrderIndex,
			IsMandatory: s.IsMandatory,
			Items:       make([]ChecklistItemDocument, 0, len(s.Items)),
		}
		for _, i := range s.Items {
			item := ChecklistItemDocument{ID: i.ID, Name: i.Name, Criteria: make([]CriterionDocument, 0, len(i.Criteria))}
			for _, c := range i.Criteria {
				item.Criteria = append(item.Criteria, CriterionDocument{
					ID:                c.ID,
					Name:              c.Name,
					Weight:            c.Weight,
					Type:              string(c.Kind),
					EvaluationType:    string(c.EvaluationType),
					RequiresPhotoOnKO: c.RequiresPhotoOnKO,
				})
			}
			section.Items = append(section.Items, item)
		}
		doc.Sections = append(doc.Sections, section)
	}
	return doc
}

func mapStoreDocument(doc StoreDocument) domain.Store {
	return domain.Store{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Code:         doc.Code,
		AderenteID:   doc.AderenteID,
		AderenteName: doc.AderenteName,
	}
}

// mapUserDocument keeps users with an unknown role readable; the permission
// gate treats an empty role as the least privileged.
func mapUserDocument(doc UserDocument) domain.User {
	role, _ := domain.NewRole(doc.Role)
	return domain.User{ID: doc.ID, Name: doc.Name, Role: role}
}
