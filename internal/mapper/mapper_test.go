package mapper_test

import (
	"testing"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/mapper"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPricebookDTO_RevisionPriceCounts(t *testing.T) {
	priced := domain.PricebookRevision{
		BaseModel:    domain.BaseModel{ID: uuid.New()},
		RevisionCode: "2025-R1",
		Status:       domain.RevisionStatusActive,
	}
	empty := domain.PricebookRevision{
		BaseModel:    domain.BaseModel{ID: uuid.New()},
		RevisionCode: "2025-R2",
		Status:       domain.RevisionStatusDraft,
	}
	pb := &domain.Pricebook{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Name:      "표준품셈",
		Revisions: []domain.PricebookRevision{priced, empty},
	}

	dto := mapper.ToPricebookDTO(pb, map[uuid.UUID]int64{priced.ID: 128})
	require.Len(t, dto.Revisions, 2)
	assert.Equal(t, 128, dto.Revisions[0].PriceCount)
	assert.Equal(t, 0, dto.Revisions[1].PriceCount)

	dto = mapper.ToPricebookDTO(pb, nil)
	require.Len(t, dto.Revisions, 2)
	assert.Equal(t, 0, dto.Revisions[0].PriceCount)
}
