package assistant

import "oyz-trade/internal/models"

// PendingSelection is the single-slot list of candidates awaiting a
// numeric reply. The zero value is empty.
type PendingSelection struct {
	Candidates []models.CandidateItem `json:"candidates"`
	Purpose    Purpose                `json:"purpose"`
}

// Set overwrites any previous selection.
func (p *PendingSelection) Set(candidates []models.CandidateItem, purpose Purpose) {
	p.Candidates = append([]models.CandidateItem(nil), candidates...)
	p.Purpose = purpose
}

func (p *PendingSelection) Get() ([]models.CandidateItem, Purpose, bool) {
	if p.Empty() {
		return nil, "", false
	}
	return p.Candidates, p.Purpose, true
}

func (p *PendingSelection) Clear() {
	p.Candidates = nil
	p.Purpose = ""
}

func (p *PendingSelection) Empty() bool {
	return len(p.Candidates) == 0
}

// Pick returns the candidate at the 1-based index.
func (p *PendingSelection) Pick(index int) (models.CandidateItem, bool) {
	if index < 1 || index > len(p.Candidates) {
		return models.CandidateItem{}, false
	}
	return p.Candidates[index-1], true
}
