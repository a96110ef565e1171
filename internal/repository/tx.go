package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
)

type txKey struct{}

// querier - общее подмножество *pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// conn возвращает транзакцию из ctx, если она есть, иначе пул.
func conn(ctx context.Context, db *pgxpool.Pool) querier {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db
}

// PostgresTransactor - реализация Transactor поверх пула pgx.
type PostgresTransactor struct {
	DB *pgxpool.Pool
}

// NewPostgresTransactor создаёт новый экземпляр PostgresTransactor.
func NewPostgresTransactor(db *pgxpool.Pool) *PostgresTransactor {
	return &PostgresTransactor{DB: db}
}

// RunInTransaction выполняет fn в транзакции. Вложенный вызов присоединяется к внешней транзакции.
func (t *PostgresTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}
	var fnErr error
	err := pgx.BeginTxFunc(ctx, t.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		fnErr = fn(context.WithValue(ctx, txKey{}, tx))
		return fnErr
	})
	if err != nil && fnErr == nil {
		return wrapErr("run transaction", err)
	}
	return err
}

// wrapErr переводит ошибки pgx в ошибки моделей.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return models.NewPersistenceError(op, pkgerrors.WithStack(err))
}

var _ Transactor = (*PostgresTransactor)(nil)
