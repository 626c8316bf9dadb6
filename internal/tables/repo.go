package tables

import "context"

type Repo interface {
	Create(ctx context.Context, t *Table) error
	Get(ctx context.Context, id int64) (*Table, error)
	GetByQRCode(ctx context.Context, qrCode string) (*Table, error)
	List(ctx context.Context) ([]*Table, error)
	ListAssistanceRequested(ctx context.Context) ([]*Table, error)
	Save(ctx context.Context, t *Table) error
}
