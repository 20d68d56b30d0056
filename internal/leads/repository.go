package leads

import "context"

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
