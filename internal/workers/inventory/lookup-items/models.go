// internal/workers/inventory/lookup-items/models.go
package lookupitems

import "oyz-trade/internal/models"

type Input struct {
	ItemName string `json:"itemName"`
	Limit    int    `json:"limit,omitempty"`
}

type Output struct {
	Match      string                 `json:"match"`
	Stage      string                 `json:"stage,omitempty"`
	Candidates []models.CandidateItem `json:"candidates"`
}
