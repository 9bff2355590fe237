// Package filestorage is the boundary to the external file store. Upload and
// download mechanics live elsewhere; the order service only needs to copy
// input files by reference when a revision order is spawned.
package filestorage

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Copier interface {
	// CopyOrderFiles links the parent order's input files to the child
	// order without re-uploading bytes.
	CopyOrderFiles(ctx context.Context, tenantID, fromOrderID, toOrderID snowflake.ID) error
}

type NoOpCopier struct{}

func (NoOpCopier) CopyOrderFiles(ctx context.Context, tenantID, fromOrderID, toOrderID snowflake.ID) error {
	return nil
}
