package tokenizer

import (
	"fmt"

	"github.com/born-ml/gptok/internal/models"
)

// CostEstimate is the USD price of a token count under each billing mode.
// A nil field means the model has no published price for that mode.
type CostEstimate struct {
	Input       *float64 `json:"input,omitempty"`
	Output      *float64 `json:"output,omitempty"`
	BatchInput  *float64 `json:"batch_input,omitempty"`
	BatchOutput *float64 `json:"batch_output,omitempty"`
	CachedInput *float64 `json:"cached_input,omitempty"`
}

// EstimateCost prices tokens for model, or for the model bound with WithModel
// when model is empty. Dated snapshots are priced as their base model. It
// fails with ErrMissingModel when neither is set and with ErrUnknownModel
// when the catalog cannot resolve the model.
func (e *Encoding) EstimateCost(tokens int, model string) (CostEstimate, error) {
	if model == "" {
		model = e.model
	}
	if model == "" {
		return CostEstimate{}, ErrMissingModel
	}

	catalog := e.catalog
	if catalog == nil {
		var err error
		if catalog, err = models.Load(); err != nil {
			return CostEstimate{}, err
		}
	}

	m, err := catalog.Resolve(model)
	if err != nil {
		return CostEstimate{}, fmt.Errorf("cost estimate: %w", err)
	}

	perToken := func(perMillion *float64) *float64 {
		if perMillion == nil {
			return nil
		}
		v := float64(tokens) / 1e6 * *perMillion
		return &v
	}

	return CostEstimate{
		Input:       perToken(m.Prices.Input),
		Output:      perToken(m.Prices.Output),
		BatchInput:  perToken(m.Prices.BatchInput),
		BatchOutput: perToken(m.Prices.BatchOutput),
		CachedInput: perToken(m.Prices.CachedInput),
	}, nil
}
