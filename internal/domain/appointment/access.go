package appointment

import (
	"context"
	"errors"

	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
)

// Professional resolves the professional an operation acts on. Only
// privileged callers may act for someone else, and only inside their account.
func Professional(
	ctx context.Context,
	repo Repository,
	p identity.Principal,
	requested uint,
) (*models.User, error) {
	id := p.Target(requested)
	if id != p.UserID && !p.Privileged() {
		return nil, httperr.ErrBusiness(ErrNotAuthorized)
	}

	u, err := repo.GetProfessional(ctx, p.AccountID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.ErrBusiness(ErrNotAuthorized)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
