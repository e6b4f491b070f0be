package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Pricebook / catalog requests ---

// CreatePricebookRequest creates a new pricebook family
type CreatePricebookRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Publisher   string     `json:"publisher" validate:"max=200"`
	Description string     `json:"description"`
	OrgID       *uuid.UUID `json:"orgId"`
}

// CreateRevisionRequest adds a draft revision under a pricebook
type CreateRevisionRequest struct {
	RevisionCode  string    `json:"revisionCode" validate:"required,max=50"`
	EffectiveFrom time.Time `json:"effectiveFrom" validate:"required"`
	Notes         string    `json:"notes"`
}

// CreateCatalogItemRequest registers a priceable unit of work
type CreateCatalogItemRequest struct {
	Code     string       `json:"code" validate:"required,max=50"`
	Name     string       `json:"name" validate:"required,max=200"`
	Category WorkCategory `json:"category" validate:"required,oneof=membrane urethane injection sealant drainage labor misc"`
	Unit     string       `json:"unit" validate:"required,max=50"`
	Spec     string       `json:"spec" validate:"max=500"`
}

// SetItemPriceRequest attaches a price row to a draft revision
type SetItemPriceRequest struct {
	CatalogItemID uuid.UUID       `json:"catalogItemId" validate:"required"`
	UnitPrice     decimal.Decimal `json:"unitPrice" validate:"required"`
}

// --- Project requests ---

// CreateProjectRequest creates a job site
type CreateProjectRequest struct {
	Name          string       `json:"name" validate:"required,max=200"`
	CustomerName  string       `json:"customerName" validate:"max=200"`
	CustomerPhone string       `json:"customerPhone" validate:"max=50"`
	Address       string       `json:"address" validate:"max=500"`
	BuildingType  BuildingType `json:"buildingType" validate:"omitempty,oneof=apartment villa officetel commercial detached rooftop underground other"`
	FloorLevel    *int         `json:"floorLevel"`
	Summary       string       `json:"summary" validate:"max=500"`
	Description   string       `json:"description"`
	StartDate     *time.Time   `json:"startDate"`
	EndDate       *time.Time   `json:"endDate"`
}

// UpdateProjectRequest updates mutable project fields
type UpdateProjectRequest struct {
	Name          string        `json:"name" validate:"required,max=200"`
	CustomerName  string        `json:"customerName" validate:"max=200"`
	CustomerPhone string        `json:"customerPhone" validate:"max=50"`
	Address       string        `json:"address" validate:"max=500"`
	BuildingType  BuildingType  `json:"buildingType" validate:"omitempty,oneof=apartment villa officetel commercial detached rooftop underground other"`
	FloorLevel    *int          `json:"floorLevel"`
	Status        ProjectStatus `json:"status" validate:"omitempty,oneof=planning active on_hold completed cancelled"`
	Summary       string        `json:"summary" validate:"max=500"`
	Description   string        `json:"description"`
	StartDate     *time.Time    `json:"startDate"`
	EndDate       *time.Time    `json:"endDate"`
}

// --- Estimate requests ---

// CreateEstimateRequest opens a draft estimate for a project
type CreateEstimateRequest struct {
	Title      string     `json:"title" validate:"required,max=200"`
	ValidUntil *time.Time `json:"validUntil"`
	Notes      string     `json:"notes"`
}

// AddLineRequest appends a line to an estimate.
//
// For catalog-sourced lines the unit price is snapshotted from the active
// revision and UnitPrice must be omitted; for manual lines UnitPrice is
// required. An optional surcharge adjusts the snapshotted unit price at
// add time (floor/height premium, rush fee).
type AddLineRequest struct {
	Name           string           `json:"name" validate:"max=200"`
	Source         LineSource       `json:"source" validate:"required,oneof=manual catalog"`
	CatalogItemID  *uuid.UUID       `json:"catalogItemId"`
	Quantity       decimal.Decimal  `json:"quantity" validate:"required"`
	Unit           string           `json:"unit" validate:"max=50"`
	UnitPrice      *decimal.Decimal `json:"unitPrice"`
	SurchargeKind  string           `json:"surchargeKind" validate:"max=50"`
	SurchargeValue *decimal.Decimal `json:"surchargeValue"`
	Description    string           `json:"description"`
}

// UpdateLineRequest edits quantity/description of an existing line.
// The unit-price snapshot is immutable once written.
type UpdateLineRequest struct {
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	Unit        string          `json:"unit" validate:"max=50"`
	Description string          `json:"description"`
}

// UpdateEstimateStatusRequest moves an estimate through its lifecycle
type UpdateEstimateStatusRequest struct {
	Status EstimateStatus `json:"status" validate:"required,oneof=draft sent accepted rejected expired"`
}

// --- Suggestion requests ---

// CreateSuggestionRequest is posted by the diagnosis pipeline. It never
// carries a price; confidence is the pipeline's match score in [0,1].
type CreateSuggestionRequest struct {
	ProjectID         uuid.UUID       `json:"projectId" validate:"required"`
	DiagnosisRef      string          `json:"diagnosisRef" validate:"max=100"`
	CatalogItemID     *uuid.UUID      `json:"catalogItemId"`
	MaterialName      string          `json:"materialName" validate:"max=200"`
	SuggestedQuantity decimal.Decimal `json:"suggestedQuantity" validate:"required"`
	SuggestedUnit     string          `json:"suggestedUnit" validate:"max=50"`
	Confidence        float64         `json:"confidence" validate:"gte=0,lte=1"`
}

// ApplySuggestionRequest attaches a pending suggestion to an estimate as a line
type ApplySuggestionRequest struct {
	EstimateID uuid.UUID `json:"estimateId" validate:"required"`
}

// --- Response DTOs ---

// PricebookDTO is the API representation of a pricebook
type PricebookDTO struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Publisher   string        `json:"publisher,omitempty"`
	Description string        `json:"description,omitempty"`
	OrgID       *uuid.UUID    `json:"orgId,omitempty"`
	Revisions   []RevisionDTO `json:"revisions,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// RevisionDTO is the API representation of a pricebook revision
type RevisionDTO struct {
	ID            uuid.UUID      `json:"id"`
	PricebookID   uuid.UUID      `json:"pricebookId"`
	RevisionCode  string         `json:"revisionCode"`
	EffectiveFrom time.Time      `json:"effectiveFrom"`
	Status        RevisionStatus `json:"status"`
	Notes         string         `json:"notes,omitempty"`
	PriceCount    int            `json:"priceCount"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// CatalogItemDTO is the API representation of a catalog item
type CatalogItemDTO struct {
	ID       uuid.UUID    `json:"id"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Category WorkCategory `json:"category"`
	Unit     string       `json:"unit"`
	Spec     string       `json:"spec,omitempty"`
	IsActive bool         `json:"isActive"`
}

// ItemPriceDTO is the API representation of one priced item under a revision
type ItemPriceDTO struct {
	CatalogItemID uuid.UUID       `json:"catalogItemId"`
	RevisionID    uuid.UUID       `json:"revisionId"`
	ItemName      string          `json:"itemName,omitempty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	UnitPriceText string          `json:"unitPriceText"`
	Currency      string          `json:"currency"`
}

// ProjectDTO is the API representation of a project
type ProjectDTO struct {
	ID            uuid.UUID     `json:"id"`
	OrgID         uuid.UUID     `json:"orgId"`
	Name          string        `json:"name"`
	CustomerName  string        `json:"customerName,omitempty"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	Address       string        `json:"address,omitempty"`
	BuildingType  BuildingType  `json:"buildingType,omitempty"`
	FloorLevel    *int          `json:"floorLevel,omitempty"`
	Status        ProjectStatus `json:"status"`
	Summary       string        `json:"summary,omitempty"`
	StartDate     *time.Time    `json:"startDate,omitempty"`
	EndDate       *time.Time    `json:"endDate,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// EstimateLineDTO is the API representation of an estimate line
type EstimateLineDTO struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Source            LineSource      `json:"source"`
	CatalogItemID     *uuid.UUID      `json:"catalogItemId,omitempty"`
	SuggestionID      *uuid.UUID      `json:"suggestionId,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit,omitempty"`
	UnitPriceSnapshot decimal.Decimal `json:"unitPriceSnapshot"`
	Amount            decimal.Decimal `json:"amount"`
	AmountText        string          `json:"amountText"`
	DisplayOrder      int             `json:"displayOrder"`
	Description       string          `json:"description,omitempty"`
}

// EstimateDTO is the API representation of an estimate
type EstimateDTO struct {
	ID          uuid.UUID         `json:"id"`
	OrgID       uuid.UUID         `json:"orgId"`
	ProjectID   uuid.UUID         `json:"projectId"`
	Title       string            `json:"title"`
	Status      EstimateStatus    `json:"status"`
	RevisionID  *uuid.UUID        `json:"revisionId,omitempty"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	VATAmount   decimal.Decimal   `json:"vatAmount"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	TotalText   string            `json:"totalText"`
	ValidUntil  *time.Time        `json:"validUntil,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Lines       []EstimateLineDTO `json:"lines"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SuggestionDTO is the API representation of an AI material suggestion
type SuggestionDTO struct {
	ID                uuid.UUID        `json:"id"`
	ProjectID         uuid.UUID        `json:"projectId"`
	DiagnosisRef      string           `json:"diagnosisRef,omitempty"`
	CatalogItemID     *uuid.UUID       `json:"catalogItemId,omitempty"`
	MaterialName      string           `json:"materialName,omitempty"`
	SuggestedQuantity decimal.Decimal  `json:"suggestedQuantity"`
	SuggestedUnit     string           `json:"suggestedUnit,omitempty"`
	Confidence        float64          `json:"confidence"`
	Status            SuggestionStatus `json:"status"`
	AppliedLineID     *uuid.UUID       `json:"appliedLineId,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// SitePhotoDTO is the API representation of an uploaded site photo
type SitePhotoDTO struct {
	ID          uuid.UUID `json:"id"`
	EstimateID  uuid.UUID `json:"estimateId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Caption     string    `json:"caption,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListResponse wraps paginated list results
type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}
