package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the ID client-side. The Postgres schema keeps a
// gen_random_uuid default for rows inserted outside the application.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// OrgStatus represents the status of a tenant organization
type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
	OrgStatusClosed    OrgStatus = "closed"
)

// Org represents a contractor organization (tenant)
type Org struct {
	BaseModel
	Name           string         `gorm:"type:varchar(200);not null;index" json:"name"`
	BusinessNumber string         `gorm:"type:varchar(20);unique;index;column:business_number" json:"businessNumber"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Address        string         `gorm:"type:varchar(500)" json:"address,omitempty"`
	Status         OrgStatus      `gorm:"type:varchar(50);not null;default:'active';index" json:"status"`
	Specialties    pq.StringArray `gorm:"type:text[]" json:"specialties,omitempty"`
}

// ProjectStatus represents the status of a waterproofing project
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// IsValid checks if the ProjectStatus is a valid enum value
func (ps ProjectStatus) IsValid() bool {
	switch ps {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// BuildingType classifies the site a project covers
type BuildingType string

const (
	BuildingTypeApartment   BuildingType = "apartment"
	BuildingTypeVilla       BuildingType = "villa"
	BuildingTypeOfficetel   BuildingType = "officetel"
	BuildingTypeCommercial  BuildingType = "commercial"
	BuildingTypeDetached    BuildingType = "detached"
	BuildingTypeRooftop     BuildingType = "rooftop"
	BuildingTypeUnderground BuildingType = "underground"
	BuildingTypeOther       BuildingType = "other"
)

// Project represents a waterproofing/repair job site for a customer
type Project struct {
	BaseModel
	OrgID         uuid.UUID     `gorm:"type:uuid;not null;index;column:org_id"`
	Org           *Org          `gorm:"foreignKey:OrgID"`
	Name          string        `gorm:"type:varchar(200);not null;index"`
	CustomerName  string        `gorm:"type:varchar(200);column:customer_name"`
	CustomerPhone string        `gorm:"type:varchar(50);column:customer_phone"`
	Address       string        `gorm:"type:varchar(500)"`
	BuildingType  BuildingType  `gorm:"type:varchar(50);index;column:building_type"`
	FloorLevel    *int          `gorm:"column:floor_level"`
	Status        ProjectStatus `gorm:"type:varchar(50);not null;default:'planning';index"`
	Summary       string        `gorm:"type:varchar(500)"`
	Description   string        `gorm:"type:text"`
	StartDate     *time.Time    `gorm:"type:date;column:start_date"`
	EndDate       *time.Time    `gorm:"type:date;column:end_date"`
	ManagerID     string        `gorm:"type:varchar(100);column:manager_id"`
	ManagerName   string        `gorm:"type:varchar(200);column:manager_name"`
	Estimates     []Estimate    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// Pricebook is a named price-list family, e.g. a published estimating manual.
// Identity is immutable; price changes are issued as new revisions and the
// pricebook itself is never deleted.
type Pricebook struct {
	BaseModel
	Name        string              `gorm:"type:varchar(200);not null;index"`
	Publisher   string              `gorm:"type:varchar(200)"`
	Description string              `gorm:"type:text"`
	OrgID       *uuid.UUID          `gorm:"type:uuid;index;column:org_id"` // nil = global pricebook shared by all orgs
	Org         *Org                `gorm:"foreignKey:OrgID"`
	Revisions   []PricebookRevision `gorm:"foreignKey:PricebookID;constraint:OnDelete:CASCADE"`
}

// RevisionStatus represents the lifecycle state of a pricebook revision
type RevisionStatus string

const (
	RevisionStatusDraft    RevisionStatus = "draft"
	RevisionStatusActive   RevisionStatus = "active"
	RevisionStatusArchived RevisionStatus = "archived"
)

// IsValid checks if the RevisionStatus is a valid enum value
func (rs RevisionStatus) IsValid() bool {
	switch rs {
	case RevisionStatusDraft, RevisionStatusActive, RevisionStatusArchived:
		return true
	}
	return false
}

// PricebookRevision is one dated snapshot of prices under a pricebook.
// Once a revision leaves draft its prices are immutable; corrections are
// issued as a new revision.
type PricebookRevision struct {
	BaseModel
	PricebookID   uuid.UUID          `gorm:"type:uuid;not null;index;column:pricebook_id"`
	Pricebook     *Pricebook         `gorm:"foreignKey:PricebookID"`
	RevisionCode  string             `gorm:"type:varchar(50);not null;column:revision_code"`
	EffectiveFrom time.Time          `gorm:"type:date;not null;index;column:effective_from"`
	Status        RevisionStatus     `gorm:"type:varchar(50);not null;default:'draft';index"`
	Notes         string             `gorm:"type:text"`
	Prices        []CatalogItemPrice `gorm:"foreignKey:RevisionID;constraint:OnDelete:CASCADE"`
}

// WorkCategory classifies catalog items by trade
type WorkCategory string

const (
	WorkCategoryMembrane  WorkCategory = "membrane"
	WorkCategoryUrethane  WorkCategory = "urethane"
	WorkCategoryInjection WorkCategory = "injection"
	WorkCategorySealant   WorkCategory = "sealant"
	WorkCategoryDrainage  WorkCategory = "drainage"
	WorkCategoryLabor     WorkCategory = "labor"
	WorkCategoryMisc      WorkCategory = "misc"
)

// IsValid checks if the WorkCategory is a valid enum value
func (wc WorkCategory) IsValid() bool {
	switch wc {
	case WorkCategoryMembrane, WorkCategoryUrethane, WorkCategoryInjection,
		WorkCategorySealant, WorkCategoryDrainage, WorkCategoryLabor, WorkCategoryMisc:
		return true
	}
	return false
}

// CatalogItem is a priceable unit of work or material. Its identity is
// stable across pricebook revisions so price history can be tracked per item.
type CatalogItem struct {
	BaseModel
	Code     string       `gorm:"type:varchar(50);unique;index"`
	Name     string       `gorm:"type:varchar(200);not null;index"`
	Category WorkCategory `gorm:"type:varchar(50);not null;index"`
	Unit     string       `gorm:"type:varchar(50);not null"` // m2, m, ea, set, day
	Spec     string       `gorm:"type:varchar(500)"`
	IsActive bool         `gorm:"not null;default:true;column:is_active"`
}

// CatalogItemPrice is the price of one catalog item under one specific
// revision. At most one row exists per (item, revision) pair; a missing
// row means the item is unpriced under that revision.
type CatalogItemPrice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key"`
	CatalogItemID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_item_revision;column:catalog_item_id"`
	CatalogItem   *CatalogItem       `gorm:"foreignKey:CatalogItemID"`
	RevisionID    uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_item_revision;column:revision_id"`
	Revision      *PricebookRevision `gorm:"foreignKey:RevisionID"`
	UnitPrice     decimal.Decimal    `gorm:"type:decimal(15,2);not null;column:unit_price"`
	Currency      string             `gorm:"type:varchar(3);not null;default:'KRW'"`
	CreatedAt     time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID client-side (see BaseModel.BeforeCreate).
func (p *CatalogItemPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EstimateStatus represents the status of an estimate document
type EstimateStatus string

const (
	EstimateStatusDraft    EstimateStatus = "draft"
	EstimateStatusSent     EstimateStatus = "sent"
	EstimateStatusAccepted EstimateStatus = "accepted"
	EstimateStatusRejected EstimateStatus = "rejected"
	EstimateStatusExpired  EstimateStatus = "expired"
)

// IsValid checks if the EstimateStatus is a valid enum value
func (es EstimateStatus) IsValid() bool {
	switch es {
	case EstimateStatusDraft, EstimateStatusSent, EstimateStatusAccepted, EstimateStatusRejected, EstimateStatusExpired:
		return true
	}
	return false
}

// Estimate is a quote document for a project. Subtotal, VATAmount and
// TotalAmount are derived fields: they are only ever written together by a
// recalculation pass over the lines, never set independently.
type Estimate struct {
	BaseModel
	OrgID       uuid.UUID       `gorm:"type:uuid;not null;index;column:org_id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index;column:project_id"`
	Project     *Project        `gorm:"foreignKey:ProjectID"`
	Title       string          `gorm:"type:varchar(200);not null"`
	Status      EstimateStatus  `gorm:"type:varchar(50);not null;default:'draft';index"`
	RevisionID  *uuid.UUID      `gorm:"type:uuid;index;column:revision_id"` // pricebook revision the snapshots were taken from
	Subtotal    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	VATAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:vat_amount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_amount"`
	ValidUntil  *time.Time      `gorm:"type:date;column:valid_until"`
	Notes       string          `gorm:"type:text"`
	CreatedByID string          `gorm:"type:varchar(100);column:created_by_id"`
	Lines       []EstimateLine  `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE"`
	Photos      []SitePhoto     `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE"`
}

// LineSource records where an estimate line came from
type LineSource string

const (
	LineSourceManual      LineSource = "manual"
	LineSourceCatalog     LineSource = "catalog"
	LineSourceAISuggested LineSource = "ai_suggested"
)

// IsValid checks if the LineSource is a valid enum value
func (ls LineSource) IsValid() bool {
	switch ls {
	case LineSourceManual, LineSourceCatalog, LineSourceAISuggested:
		return true
	}
	return false
}

// EstimateLine is one priced row on an estimate. UnitPriceSnapshot is
// copied from the catalog at the moment the line is added; it is never
// re-read from the catalog afterwards, so historical estimates stay stable
// when catalog prices change.
type EstimateLine struct {
	BaseModel
	EstimateID    uuid.UUID       `gorm:"type:uuid;not null;index;column:estimate_id"`
	Estimate      *Estimate       `gorm:"foreignKey:EstimateID"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Source        LineSource      `gorm:"type:varchar(50);not null;default:'manual';index"`
	CatalogItemID *uuid.UUID      `gorm:"type:uuid;index;column:catalog_item_id"`
	CatalogItem   *CatalogItem    `gorm:"foreignKey:CatalogItemID"`
	SuggestionID  *uuid.UUID      `gorm:"type:uuid;column:suggestion_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Unit          string          `gorm:"type:varchar(50)"`

	// UnitPriceSnapshot is the frozen price; Amount is always derived as
	// round-half-up(Quantity * UnitPriceSnapshot) by recalculation.
	UnitPriceSnapshot decimal.Decimal `gorm:"type:decimal(15,2);not null;column:unit_price_snapshot"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	DisplayOrder      int             `gorm:"not null;default:0;column:display_order"`
	Description       string          `gorm:"type:text"`
}

// SuggestionStatus represents the review state of an AI material suggestion
type SuggestionStatus string

const (
	SuggestionStatusPending   SuggestionStatus = "pending"
	SuggestionStatusApplied   SuggestionStatus = "applied"
	SuggestionStatusDismissed SuggestionStatus = "dismissed"
)

// AIMaterialSuggestion is a candidate quantity/material match produced by
// the diagnosis pipeline. It carries no price: applying a suggestion always
// resolves pricing through the active catalog revision.
type AIMaterialSuggestion struct {
	BaseModel
	OrgID             uuid.UUID        `gorm:"type:uuid;not null;index;column:org_id"`
	ProjectID         uuid.UUID        `gorm:"type:uuid;not null;index;column:project_id"`
	Project           *Project         `gorm:"foreignKey:ProjectID"`
	DiagnosisRef      string           `gorm:"type:varchar(100);column:diagnosis_ref"`
	CatalogItemID     *uuid.UUID       `gorm:"type:uuid;index;column:catalog_item_id"`
	CatalogItem       *CatalogItem     `gorm:"foreignKey:CatalogItemID"`
	MaterialName      string           `gorm:"type:varchar(200);column:material_name"`
	SuggestedQuantity decimal.Decimal  `gorm:"type:decimal(12,3);not null;column:suggested_quantity"`
	SuggestedUnit     string           `gorm:"type:varchar(50);column:suggested_unit"`
	Confidence        float64          `gorm:"type:decimal(4,3);not null"`
	Status            SuggestionStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
	AppliedLineID     *uuid.UUID       `gorm:"type:uuid;column:applied_line_id"`
	ReviewedByID      string           `gorm:"type:varchar(100);column:reviewed_by_id"`
	ReviewedAt        *time.Time       `gorm:"column:reviewed_at"`
}

// TableName overrides the default table name
func (AIMaterialSuggestion) TableName() string {
	return "ai_material_suggestions"
}

// SitePhoto represents an uploaded site/leak photo attached to an estimate
type SitePhoto struct {
	BaseModel
	EstimateID  uuid.UUID `gorm:"type:uuid;not null;index;column:estimate_id"`
	Estimate    *Estimate `gorm:"foreignKey:EstimateID"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100);not null;column:content_type"`
	Size        int64     `gorm:"not null"`
	StoragePath string    `gorm:"type:varchar(500);not null;unique;column:storage_path"`
	Caption     string    `gorm:"type:varchar(500)"`
	UploadedBy  string    `gorm:"type:varchar(100);column:uploaded_by"`
}

// UserRoleType represents a role a user can have within an org
type UserRoleType string

const (
	RoleOwner      UserRoleType = "owner"
	RoleEstimator  UserRoleType = "estimator"
	RoleFieldStaff UserRoleType = "field_staff"
	RoleViewer     UserRoleType = "viewer"
	RoleAPIService UserRoleType = "api_service"
)

// User represents an operator account scoped to an org
type User struct {
	ID          string         `gorm:"type:varchar(100);primaryKey" json:"id"`
	OrgID       *uuid.UUID     `gorm:"type:uuid;index;column:org_id" json:"orgId,omitempty"`
	Org         *Org           `gorm:"foreignKey:OrgID" json:"org,omitempty"`
	Email       string         `gorm:"type:varchar(255);not null;unique" json:"email"`
	DisplayName string         `gorm:"type:varchar(200);not null;column:name" json:"displayName"`
	Phone       string         `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Roles       pq.StringArray `gorm:"type:text[];not null" json:"roles"`
	IsActive    bool           `gorm:"not null;default:true;column:is_active" json:"isActive"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}
