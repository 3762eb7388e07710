package cart

import "context"

type Repository interface {
	List(ctx context.Context) ([]Line, error)
	Get(ctx context.Context, id string) (Line, error)
	Insert(ctx context.Context, l Line) error
	Update(ctx context.Context, l Line) error
	Delete(ctx context.Context, id string) (Line, error)
}
