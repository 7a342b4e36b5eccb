package queries

import (
	"context"
	"strings"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	"fanvault/contexts/identity-access/onboarding-service/ports"
)

type ListAuditQuery struct {
	TargetUserID string
	Cursor       string
	Limit        int
}

type ListAuditResult struct {
	Items      []entities.AuditEntry
	NextCursor string
}

type ListAuditUseCase struct {
	Audit ports.AuditRepository
}

func (u ListAuditUseCase) Execute(ctx context.Context, query ListAuditQuery) (ListAuditResult, error) {
	items, next, err := u.Audit.ListAudit(ctx, ports.AuditFilter{
		TargetUserID: strings.TrimSpace(query.TargetUserID),
		Cursor:       strings.TrimSpace(query.Cursor),
		Limit:        clampLimit(query.Limit),
	})
	if err != nil {
		return ListAuditResult{}, err
	}
	return ListAuditResult{Items: items, NextCursor: next}, nil
}
