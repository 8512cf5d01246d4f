package service

import (
	"context"

	"github.com/staffing-api/internal/domain"
)

// parties - имена сторон операции на момент её выполнения
type parties struct {
	replaced    domain.Party
	replacement domain.Party
	contractID  int64
	customer    domain.Party
}

func (d Deps) partySnapshot(ctx context.Context, replacedID, replacementID, contractID int64) (*parties, error) {
	replaced, err := d.Repos.Directory.GetEmployee(ctx, replacedID)
	if err != nil {
		return nil, err
	}
	replacement := replaced
	if replacementID != replacedID {
		if replacement, err = d.Repos.Directory.GetEmployee(ctx, replacementID); err != nil {
			return nil, err
		}
	}
	contract, err := d.Repos.Directory.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	customer, err := d.Repos.Directory.GetCustomer(ctx, contract.CustomerID)
	if err != nil {
		return nil, err
	}
	return &parties{
		replaced:    replaced,
		replacement: replacement,
		contractID:  contract.ID,
		customer:    customer,
	}, nil
}

func (p *parties) history(oldID, newID int64, kind domain.ReassignmentType, notes, actor string) *domain.AssignmentHistory {
	return &domain.AssignmentHistory{
		OldAssignmentID:         oldID,
		NewAssignmentID:         newID,
		ReplacedEmployeeID:      p.replaced.PartyID(),
		ReplacedEmployeeName:    p.replaced.DisplayName(),
		ReplacementEmployeeID:   p.replacement.PartyID(),
		ReplacementEmployeeName: p.replacement.DisplayName(),
		ContractID:              p.contractID,
		CustomerName:            p.customer.DisplayName(),
		Type:                    kind,
		Notes:                   notes,
		Status:                  domain.HistoryActive,
		CreatedBy:               actor,
	}
}
