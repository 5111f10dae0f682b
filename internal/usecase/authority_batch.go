package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BatchEntry pairs an approval type with the ceiling entered for it. The
// amount only sticks when the type's code actually carries one.
type BatchEntry struct {
	ApprovalTypeID int64
	MaxAmount      *float64
}

// BatchCreateInput captures a multi-select grant submission: several
// approval types crossed with several companies for one employee, sharing
// one validity window.
type BatchCreateInput struct {
	EmployeeID int64
	Entries    []BatchEntry
	CompanyIDs []int64
	ValidFrom  time.Time
	ValidTo    *time.Time
	Notes      *string
}

// BatchFailure identifies one failed combination and why it was skipped.
type BatchFailure struct {
	Label  string
	Reason string
}

// BatchResult aggregates the outcome of an expansion.
type BatchResult struct {
	SuccessCount int
	Failures     []BatchFailure
}

// BatchCreate expands the submission into (approval type, company) pairs and
// inserts each one independently: types in submitted order on the outside,
// companies in submitted order on the inside. An empty company selection
// collapses to a single global grant per type. One failed pair never stops
// the remaining pairs; each failure is reported with the pair's label.
func (s *AuthorityService) BatchCreate(ctx context.Context, actor string, input BatchCreateInput) (*BatchResult, error) {
	if len(input.Entries) == 0 {
		return nil, fmt.Errorf("at least one approval type is required")
	}

	companyIDs := make([]*int64, 0, len(input.CompanyIDs))
	for _, id := range input.CompanyIDs {
		if id <= 0 {
			companyIDs = append(companyIDs, nil)
			continue
		}
		scoped := id
		companyIDs = append(companyIDs, &scoped)
	}
	if len(companyIDs) == 0 {
		companyIDs = append(companyIDs, nil)
	}

	result := &BatchResult{Failures: make([]BatchFailure, 0)}

	for _, entry := range input.Entries {
		typeName := s.approvalTypeLabel(ctx, entry.ApprovalTypeID)

		for _, companyID := range companyIDs {
			label := typeName + " / " + s.companyLabel(ctx, companyID)

			pair := AuthorityInput{
				EmployeeID:     input.EmployeeID,
				ApprovalTypeID: entry.ApprovalTypeID,
				CompanyID:      companyID,
				ValidFrom:      input.ValidFrom,
				ValidTo:        input.ValidTo,
				MaxAmount:      entry.MaxAmount,
				Notes:          input.Notes,
			}

			if _, err := s.Create(ctx, actor, pair); err != nil {
				result.Failures = append(result.Failures, BatchFailure{
					Label:  label,
					Reason: batchFailureReason(err),
				})
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					s.logger.Error("batch authority insert failed",
						zap.String("pair", label), zap.Error(err))
				}
				continue
			}
			result.SuccessCount++
		}
	}

	return result, nil
}

// batchFailureReason renders the per-pair reason: the first violation for
// rejected input, or the wrapped persistence error otherwise.
func batchFailureReason(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) && len(validationErr.Violations) > 0 {
		return validationErr.Violations[0]
	}
	return "Error: " + err.Error()
}

func (s *AuthorityService) approvalTypeLabel(ctx context.Context, id int64) string {
	if approvalType, err := s.approvalTypes.GetByID(ctx, id); err == nil {
		return approvalType.Name
	}
	return fmt.Sprintf("Type %d", id)
}

func (s *AuthorityService) companyLabel(ctx context.Context, id *int64) string {
	if id == nil {
		return "Global"
	}
	if company, err := s.companies.GetByID(ctx, *id); err == nil {
		return company.Name
	}
	return fmt.Sprintf("Company %d", *id)
}
