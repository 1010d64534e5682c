// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/fluffyriot/skillboard/internal/report"
)

type Putter interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// Archive keeps a copy of generated reports in object storage.
type Archive struct {
	store Putter
}

func NewArchive(store Putter) *Archive {
	return &Archive{store: store}
}

func ReportKey(userID, reportID string) string {
	clean := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(userID)
	if clean == "" {
		clean = "unknown"
	}
	return fmt.Sprintf("reports/%s/%s.pdf", clean, reportID)
}

func (a *Archive) Store(ctx context.Context, userID string, doc report.Document) (string, error) {
	key := ReportKey(userID, doc.ID)
	if err := a.store.Put(ctx, key, doc.ContentType, doc.Data); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}
