package audit

import (
	"time"

	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

type scoreRequest struct {
	Value *int `json:"value"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type photoRequest struct {
	URL string `json:"url"`
}

type sectionEvaluationRequest struct {
	ActionPlan  string `json:"actionPlan"`
	Responsible string `json:"responsible"`
	DueDate     string `json:"dueDate"`
}

type progressRequest struct {
	AuditorComments *string `json:"auditorComments"`
}

type replaceRequest struct {
	ReplacedBy string `json:"replacedBy"`
}

type auditResponse struct {
	ID              string     `json:"id"`
	StoreID         string     `json:"storeId"`
	ChecklistID     int        `json:"checklistId"`
	DotUserID       string     `json:"dotUserId,omitempty"`
	CreatedBy       string     `json:"createdBy"`
	Status          string     `json:"status"`
	DtStart         time.Time  `json:"dtstart"`
	DtEnd           *time.Time `json:"dtend,omitempty"`
	AuditorComments string     `json:"auditorComments,omitempty"`
	FinalScore      *int       `json:"finalScore"`
	VisitSource     string     `json:"visitSourceType"`
	ReplacedBy      string     `json:"replacedBy,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type scoreResponse struct {
	CriterionID    int      `json:"criteriaId"`
	Value          *int     `json:"value"`
	Display        string   `json:"display"`
	Comment        string   `json:"comment,omitempty"`
	Photos         []string `json:"photos"`
	EvaluationType string   `json:"evaluationType"`
	RequiresPhoto  bool     `json:"requiresPhoto"`
}

type sectionEvaluationResponse struct {
	SectionKey  string     `json:"sectionKey"`
	SectionID   int        `json:"sectionId"`
	Subsection  string     `json:"subsection,omitempty"`
	Rating      *int       `json:"rating"`
	ActionPlan  string     `json:"actionPlan"`
	Responsible string     `json:"responsible"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AderenteID  string     `json:"aderenteId,omitempty"`
	StoreID     string     `json:"storeId"`
	CreatedBy   string     `json:"createdBy"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type permissionsResponse struct {
	Edit    bool `json:"edit"`
	Submit  bool `json:"submit"`
	Delete  bool `json:"delete"`
	Approve bool `json:"approve"`
	Close   bool `json:"close"`
}

type groupResultResponse struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
	Rating     int     `json:"rating"`
	Scored     int     `json:"scored"`
	Total      int     `json:"total"`
}

type sectionResultResponse struct {
	SectionID   int                   `json:"sectionId"`
	Name        string                `json:"name"`
	Percentage  float64               `json:"percentage"`
	Rating      int                   `json:"rating"`
	Subsections []groupResultResponse `json:"subsections,omitempty"`
}

type summaryResponse struct {
	Sections      []sectionResultResponse `json:"sections"`
	Total         float64                 `json:"total"`
	FinalScore    int                     `json:"finalScore"`
	MissingPhotos []int                   `json:"missingPhotos"`
}

type criterionResponse struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Weight            float64 `json:"weight"`
	Type              string  `json:"type"`
	EvaluationType    string  `json:"evaluationType,omitempty"`
	RequiresPhotoOnKO bool    `json:"requiresPhotoOnKO"`
}

type itemResponse struct {
	ID       int                 `json:"id"`
	Name     string              `json:"name"`
	Criteria []criterionResponse `json:"criteria"`
}

type checklistSectionResponse struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	OrderIndex  int            `json:"orderIndex"`
	IsMandatory bool           `json:"isMandatory"`
	Items       []itemResponse `json:"items"`
}

type checklistResponse struct {
	ID         int                        `json:"id"`
	Name       string                     `json:"name"`
	TargetRole string                     `json:"targetRole,omitempty"`
	Sections   []checklistSectionResponse `json:"sections"`
}

type storeResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code,omitempty"`
	AderenteID   string `json:"aderenteId,omitempty"`
	AderenteName string `json:"aderenteName,omitempty"`
}

type auditViewResponse struct {
	Audit       auditResponse               `json:"audit"`
	Checklist   checklistResponse           `json:"checklist"`
	Store       *storeResponse              `json:"store,omitempty"`
	Scores      []scoreResponse             `json:"scores"`
	Evaluations []sectionEvaluationResponse `json:"evaluations"`
	Summary     summaryResponse             `json:"summary"`
	Permissions permissionsResponse         `json:"permissions"`
}

func toAuditResponse(a domain.Audit) auditResponse {
	return auditResponse{
		ID:              a.ID,
		StoreID:         a.StoreID,
		ChecklistID:     a.ChecklistID,
		DotUserID:       a.DotUserID,
		CreatedBy:       a.CreatedBy,
		Status:          a.Status.String(),
		DtStart:         a.DtStart,
		DtEnd:           a.DtEnd,
		AuditorComments: a.AuditorComments,
		FinalScore:      a.FinalScore,
		VisitSource:     string(a.VisitSource),
		ReplacedBy:      a.ReplacedBy,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toScoreResponse(s domain.AuditScore) scoreResponse {
	return scoreResponse{
		CriterionID:    s.CriterionID,
		Value:          s.Score.Value(),
		Display:        s.Score.String(),
		Comment:        s.Comment,
		Photos:         s.Photos.Strings(),
		EvaluationType: s.EvaluationType.String(),
		RequiresPhoto:  s.RequiresPhoto,
	}
}

func toSectionEvaluationResponse(e domain.SectionEvaluation) sectionEvaluationResponse {
	return sectionEvaluationResponse{
		SectionKey:  e.Key.String(),
		SectionID:   e.Key.SectionID,
		Subsection:  e.Key.Prefix,
		Rating:      e.Rating,
		ActionPlan:  e.ActionPlan,
		Responsible: e.Responsible,
		DueDate:     e.DueDate,
		AderenteID:  e.AderenteID,
		StoreID:     e.StoreID,
		CreatedBy:   e.CreatedBy,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toPermissionsResponse(p domain.Permissions) permissionsResponse {
	return permissionsResponse{
		Edit:    p.Edit,
		Submit:  p.Submit,
		Delete:  p.Delete,
		Approve: p.Approve,
		Close:   p.Close,
	}
}

func toSummaryResponse(s domain.Summary) summaryResponse {
	sections := make([]sectionResultResponse, 0, len(s.Sections))
	for _, section := range s.Sections {
		result := sectionResultResponse{
			SectionID:  section.SectionID,
			Name:       section.Name,
			Percentage: section.Percentage,
			Rating:     section.Rating,
		}
		for _, group := range section.Subsections {
			result.Subsections = append(result.Subsections, groupResultResponse{
				Key:        group.Key.String(),
				Label:      group.Label,
				Percentage: group.Percentage,
				Rating:     group.Rating,
				Scored:     group.Scored,
				Total:      group.Total,
			})
		}
		sections = append(sections, result)
	}
	missing := s.MissingPhotos
	if missing == nil {
		missing = []int{}
	}
	return summaryResponse{
		Sections:      sections,
		Total:         s.Total,
		FinalScore:    s.FinalScore,
		MissingPhotos: missing,
	}
}

func toChecklistResponse(c domain.Checklist) checklistResponse {
	sections := make([]checklistSectionResponse, 0, len(c.Sections))
	for _, section := range c.Sections {
		items := make([]itemResponse, 0, len(section.Items))
		for _, item := range section.Items {
			criteria := make([]criterionResponse, 0, len(item.Criteria))
			for _, criterion := range item.Criteria {
				criteria = append(criteria, criterionResponse{
					ID:                criterion.ID,
					Name:              criterion.Name,
					Weight:            criterion.Weight,
					Type:              string(criterion.Kind),
					EvaluationType:    string(criterion.EvaluationType),
					RequiresPhotoOnKO: criterion.RequiresPhotoOnKO,
				})
			}
			items = append(items, itemResponse{ID: item.ID, Name: item.Name, Criteria: criteria})
		}
		sections = append(sections, checklistSectionResponse{
			ID:          section.ID,
			Name:        section.Name,
			OrderIndex:  section.OrderIndex,
			IsMandatory: section.IsMandatory,
			Items:       items,
		})
	}
	return checklistResponse{
		ID:         c.ID,
		Name:       c.Name,
		TargetRole: string(c.TargetRole),
		Sections:   sections,
	}
}

func toAuditViewResponse(view application.AuditView) auditViewResponse {
	scores := make([]scoreResponse, 0, len(view.Scores))
	for _, row := range view.Scores {
		scores = append(scores, toScoreResponse(row))
	}
	evaluations := make([]sectionEvaluationResponse, 0, len(view.Evaluations))
	for _, evaluation := range view.Evaluations {
		evaluations = append(evaluations, toSectionEvaluationResponse(evaluation))
	}
	resp := auditViewResponse{
		Audit:       toAuditResponse(view.Audit),
		Checklist:   toChecklistResponse(view.Checklist),
		Scores:      scores,
		Evaluations: evaluations,
		Summary:     toSummaryResponse(view.Summary),
		Permissions: toPermissionsResponse(view.Permissions),
	}
	if view.Store != nil {
		resp.Store = &storeResponse{
			ID:           view.Store.ID,
			Name:         view.Store.Name,
			Code:         view.Store.Code,
			AderenteID:   view.Store.AderenteID,
			AderenteName: view.Store.AderenteName,
		}
	}
	return resp
}
