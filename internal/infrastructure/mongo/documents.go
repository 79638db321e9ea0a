package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditDocument is the audit header as stored in the audits collection.
type AuditDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	StoreID         string             `bson:"storeId"`
	ChecklistID     int                `bson:"checklistId"`
	DotUserID       string             `bson:"dotUserId,omitempty"`
	CreatedBy       string             `bson:"createdBy"`
	Status          int                `bson:"status"`
	DtStart         time.Time          `bson:"dtstart"`
	DtEnd           *time.Time         `bson:"dtend,omitempty"`
	AuditorComments string             `bson:"auditorComments,omitempty"`
	FinalScore      *int               `bson:"finalScore,omitempty"`
	VisitSource     string             `bson:"visitSourceType,omitempty"`
	ReplacedBy      string             `bson:"replacedBy,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

// AuditScoreDocument is one ledger row, unique on (auditId, criteriaId).
type AuditScoreDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	AuditID        primitive.ObjectID `bson:"auditId"`
	CriteriaID     int                `bson:"criteriaId"`
	Value          *int               `bson:"value"`
	Comment        string             `bson:"comment"`
	Photos         []string           `bson:"photos"`
	EvaluationType string             `bson:"evaluationType"`
	RequiresPhoto  bool               `bson:"requiresPhoto"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// SectionEvaluationDocument is one action plan, unique on (auditId, sectionKey).
type SectionEvaluationDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	AuditID     primitive.ObjectID `bson:"auditId"`
	SectionKey  string             `bson:"sectionKey"`
	SectionID   int                `bson:"sectionId"`
	Subsection  string             `bson:"subsection,omitempty"`
	Rating      *int               `bson:"rating"`
	ActionPlan  string             `bson:"actionPlan"`
	Responsible string             `bson:"responsible"`
	DueDate     *time.Time         `bson:"dueDate,omitempty"`
	AderenteID  string             `bson:"aderenteId,omitempty"`
	StoreID     string             `bson:"storeId"`
	CreatedBy   string             `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ChecklistDocument embeds the whole checklist tree; checklists are small and
// always read whole.
type ChecklistDocument struct {
	ID         int                        `bson:"_id"`
	Name       string                     `bson:"name"`
	TargetRole string                     `bson:"targetRole,omitempty"`
	Sections   []ChecklistSectionDocument `bson:"sections"`
	UpdatedAt  time.Time                  `bson:"updatedAt"`
}

type ChecklistSectionDocument struct {
	ID          int                     `bson:"id"`
	Name        string                  `bson:"name"`
	OrderIndex  int                     `bson:"orderIndex"`
	IsMandatory bool                    `bson:"isMandatory"`
	Items       []ChecklistItemDocument `bson:"items"`
}

type ChecklistItemDocument struct {
	ID       int                 `bson:"id"`
	Name     string              `bson:"name"`
	Criteria []CriterionDocument `bson:"criteria"`
}

type CriterionDocument struct {
	ID                int     `bson:"id"`
	Name              string  `bson:"name"`
	Weight            float64 `bson:"weight"`
	Type              string  `bson:"type,omitempty"`
	EvaluationType    string  `bson:"evaluationType,omitempty"`
	RequiresPhotoOnKO bool    `bson:"requiresPhotoOnKO,omitempty"`
}

// StoreDocument is the directory entry of a store.
type StoreDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Code         string             `bson:"code,omitempty"`
	AderenteID   string             `bson:"aderenteId,omitempty"`
	AderenteName string             `bson:"aderenteName,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// UserDocument is keyed by the auth subject so JWT ids resolve directly.
type UserDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"createdAt"`
}

// FailedNotificationDocument keeps a notification the gateway refused so it
// can be replayed.
type FailedNotificationDocument struct {
	ID          string            `bson:"_id"`
	Target      string            `bson:"target"`
	Payload     map[string]string `bson:"payload"`
	Error       string            `bson:"error"`
	Attempts    int               `bson:"attempts"`
	Status      string            `bson:"status"`
	CreatedAt   time.Time         `bson:"createdAt"`
	LastTriedAt time.Time         `bson:"lastTriedAt"`
}
