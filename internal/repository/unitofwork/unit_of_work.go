package unitofwork

import (
	"context"

	"engram-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteRepository() contract.NoteRepository
	RelationRepository() contract.RelationRepository
}
