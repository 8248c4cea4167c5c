package patterns

import (
	"context"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/store"
)

// Lister abstracts the prediction history source the miner reads from.
type Lister interface {
	ListRecent(ctx context.Context, req models.ListPredictionsRequest) ([]store.PredictionRecord, error)
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context, req models.ListPredictionsRequest) ([]store.PredictionRecord, error)

// ListRecent implements Lister.
func (f ListerFunc) ListRecent(ctx context.Context, req models.ListPredictionsRequest) ([]store.PredictionRecord, error) {
	return f(ctx, req)
}
