package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/buddyread/buddyread-server/internal/config"
	"github.com/buddyread/buddyread-server/internal/logger"
	"github.com/buddyread/buddyread-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve book index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.SearchPath(),
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReconcile brings the index in line with the catalog in the
// background. A fresh or rebuilt index starts empty; this fills it without
// waiting for the scheduled reindex job.
func TriggerSearchReconcile(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		ctx := context.Background()
		books, err := storeHandle.ListBooks(ctx)
		if err != nil {
			log.WithError(err).Error("Initial search reconcile failed")
			return
		}
		indexed, err := indexHandle.Reconcile(ctx, books)
		if err != nil {
			log.WithError(err).Error("Initial search reconcile failed")
			return
		}
		if indexed > 0 {
			log.Info("Initial search reconcile completed", "indexed", indexed)
		}
	}()
}
