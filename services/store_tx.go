package services

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// runInTx executes fn inside a database transaction. A transaction
// already carried by ctx is reused, so store calls made from fn all
// share a single commit.
func runInTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// storeConn returns the transaction carried by ctx when present,
// otherwise db bound to ctx.
func storeConn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
