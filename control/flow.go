package control

import (
	"fmt"

	"github.com/SierraSoftworks/connor"
	"github.com/go-json-experiment/json"
	"github.com/google/btree"

	"github.com/djdv/go-flowpool/packet"
)

type (
	// Flow describes one probed flow.
	Flow struct {
		ID        string           `json:"id"`
		Direction packet.Direction `json:"direction"`
		Endpoint  packet.Endpoint  `json:"endpoint"`
	}
	// Query selects flows in identifier order.
	Query struct {
		// From is the first identifier to consider (inclusive).
		From string `json:"from,omitzero"`
		// Limit caps the result size; 0 means no limit.
		Limit int `json:"limit,omitzero"`
		// Filter is matched against each flow's JSON document,
		// e.g. {"direction": {"$eq": "reverse"}}.
		Filter map[string]any `json:"filter,omitzero"`
	}
	// catalog keeps flow metadata ordered by identifier.
	catalog = btree.BTreeG[Flow]
)

const catalogDegree = 32

func newCatalog() *catalog {
	return btree.NewG(catalogDegree, func(a, b Flow) bool {
		return a.ID < b.ID
	})
}

func (q Query) validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit must be >=0 but got %d",
			ErrInvalidQuery, q.Limit)
	}
	return nil
}

// selectFlows walks the catalog from q.From, applying the filter and limit.
func selectFlows(flows *catalog, q Query) ([]Flow, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	var (
		selected []Flow
		matchErr error
	)
	flows.AscendGreaterOrEqual(Flow{ID: q.From}, func(flow Flow) bool {
		if len(q.Filter) > 0 {
			match, err := matches(q.Filter, flow)
			if err != nil {
				matchErr = err
				return false
			}
			if !match {
				return true
			}
		}
		selected = append(selected, flow)
		return q.Limit == 0 || len(selected) < q.Limit
	})
	if matchErr != nil {
		return nil, matchErr
	}
	return selected, nil
}

func matches(filter map[string]any, flow Flow) (bool, error) {
	document, err := flowDocument(flow)
	if err != nil {
		return false, err
	}
	match, err := connor.Match(filter, document)
	if err != nil {
		return false, fmt.Errorf("%w: filter: %w", ErrInvalidQuery, err)
	}
	return match, nil
}

// flowDocument returns flow the way it appears on the wire,
// which is what filters are written against.
func flowDocument(flow Flow) (map[string]any, error) {
	encoded, err := json.Marshal(flow)
	if err != nil {
		return nil, err
	}
	var document map[string]any
	if err := json.Unmarshal(encoded, &document); err != nil {
		return nil, err
	}
	return document, nil
}
