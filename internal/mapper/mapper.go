package mapper

import (
	"github.com/google/uuid"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/pricing"
)

// ToPricebookDTO converts Pricebook to PricebookDTO. priceCounts maps
// revision ID to its number of price rows; revisions without an entry
// render a count of zero.
func ToPricebookDTO(pb *domain.Pricebook, priceCounts map[uuid.UUID]int64) domain.PricebookDTO {
	dto := domain.PricebookDTO{
		ID:          pb.ID,
		Name:        pb.Name,
		Publisher:   pb.Publisher,
		Description: pb.Description,
		OrgID:       pb.OrgID,
		CreatedAt:   pb.CreatedAt,
	}
	for i := range pb.Revisions {
		rev := &pb.Revisions[i]
		dto.Revisions = append(dto.Revisions, ToRevisionDTO(rev, int(priceCounts[rev.ID])))
	}
	return dto
}

// ToRevisionDTO converts PricebookRevision to RevisionDTO
func ToRevisionDTO(rev *domain.PricebookRevision, priceCount int) domain.RevisionDTO {
	return domain.RevisionDTO{
		ID:            rev.ID,
		PricebookID:   rev.PricebookID,
		RevisionCode:  rev.RevisionCode,
		EffectiveFrom: rev.EffectiveFrom,
		Status:        rev.Status,
		Notes:         rev.Notes,
		PriceCount:    priceCount,
		CreatedAt:     rev.CreatedAt,
	}
}

// ToCatalogItemDTO converts CatalogItem to CatalogItemDTO
func ToCatalogItemDTO(item *domain.CatalogItem) domain.CatalogItemDTO {
	return domain.CatalogItemDTO{
		ID:       item.ID,
		Code:     item.Code,
		Name:     item.Name,
		Category: item.Category,
		Unit:     item.Unit,
		Spec:     item.Spec,
		IsActive: item.IsActive,
	}
}

// ToItemPriceDTO converts CatalogItemPrice to ItemPriceDTO
func ToItemPriceDTO(price *domain.CatalogItemPrice) domain.ItemPriceDTO {
	dto := domain.ItemPriceDTO{
		CatalogItemID: price.CatalogItemID,
		RevisionID:    price.RevisionID,
		UnitPrice:     price.UnitPrice,
		UnitPriceText: pricing.FormatKRW(price.UnitPrice),
		Currency:      "KRW",
	}
	if price.CatalogItem != nil {
		dto.ItemName = price.CatalogItem.Name
	}
	return dto
}

// ToProjectDTO converts Project to ProjectDTO
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	return domain.ProjectDTO{
		ID:            project.ID,
		OrgID:         project.OrgID,
		Name:          project.Name,
		CustomerName:  project.CustomerName,
		CustomerPhone: project.CustomerPhone,
		Address:       project.Address,
		BuildingType:  project.BuildingType,
		FloorLevel:    project.FloorLevel,
		Status:        project.Status,
		Summary:       project.Summary,
		StartDate:     project.StartDate,
		EndDate:       project.EndDate,
		CreatedAt:     project.CreatedAt,
		UpdatedAt:     project.UpdatedAt,
	}
}

// ToEstimateLineDTO converts EstimateLine to EstimateLineDTO
func ToEstimateLineDTO(line *domain.EstimateLine) domain.EstimateLineDTO {
	return domain.EstimateLineDTO{
		ID:                line.ID,
		Name:              line.Name,
		Source:            line.Source,
		CatalogItemID:     line.CatalogItemID,
		SuggestionID:      line.SuggestionID,
		Quantity:          line.Quantity,
		Unit:              line.Unit,
		UnitPriceSnapshot: line.UnitPriceSnapshot,
		Amount:            line.Amount,
		AmountText:        pricing.FormatKRW(line.Amount),
		DisplayOrder:      line.DisplayOrder,
		Description:       line.Description,
	}
}

// ToEstimateDTO converts Estimate to EstimateDTO including its lines
func ToEstimateDTO(est *domain.Estimate) domain.EstimateDTO {
	dto := domain.EstimateDTO{
		ID:          est.ID,
		OrgID:       est.OrgID,
		ProjectID:   est.ProjectID,
		Title:       est.Title,
		Status:      est.Status,
		RevisionID:  est.RevisionID,
		Subtotal:    est.Subtotal,
		VATAmount:   est.VATAmount,
		TotalAmount: est.TotalAmount,
		TotalText:   pricing.FormatKRW(est.TotalAmount),
		ValidUntil:  est.ValidUntil,
		Notes:       est.Notes,
		Lines:       make([]domain.EstimateLineDTO, len(est.Lines)),
		CreatedAt:   est.CreatedAt,
		UpdatedAt:   est.UpdatedAt,
	}
	for i := range est.Lines {
		dto.Lines[i] = ToEstimateLineDTO(&est.Lines[i])
	}
	return dto
}

// ToSuggestionDTO converts AIMaterialSuggestion to SuggestionDTO
func ToSuggestionDTO(s *domain.AIMaterialSuggestion) domain.SuggestionDTO {
	return domain.SuggestionDTO{
		ID:                s.ID,
		ProjectID:         s.ProjectID,
		DiagnosisRef:      s.DiagnosisRef,
		CatalogItemID:     s.CatalogItemID,
		MaterialName:      s.MaterialName,
		SuggestedQuantity: s.SuggestedQuantity,
		SuggestedUnit:     s.SuggestedUnit,
		Confidence:        s.Confidence,
		Status:            s.Status,
		AppliedLineID:     s.AppliedLineID,
		CreatedAt:         s.CreatedAt,
	}
}

// ToSitePhotoDTO converts SitePhoto to SitePhotoDTO
func ToSitePhotoDTO(photo *domain.SitePhoto) domain.SitePhotoDTO {
	return domain.SitePhotoDTO{
		ID:          photo.ID,
		EstimateID:  photo.EstimateID,
		Filename:    photo.Filename,
		ContentType: photo.ContentType,
		Size:        photo.Size,
		Caption:     photo.Caption,
		CreatedAt:   photo.CreatedAt,
	}
}
