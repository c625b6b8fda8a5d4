package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// ShowStatusInput contains the input for the ShowStatus use case.
type ShowStatusInput struct{}

// RepoProgress is the completion count of one repository across its sections.
type RepoProgress struct {
	Repo  string `json:"repo" yaml:"repo"`
	Done  int    `json:"done" yaml:"done"`
	Total int    `json:"total" yaml:"total"`
}

// PausedRepo is a repository on cooldown.
type PausedRepo struct {
	Until time.Time `json:"until" yaml:"until"`
	Repo  string    `json:"repo" yaml:"repo"`
}

// ShowStatusOutput is a snapshot of the loop's state and ledger progress.
// Fields are ordered to minimize memory padding.
type ShowStatusOutput struct {
	LedgerPath         string         `json:"ledgerPath" yaml:"ledgerPath"`
	LastRepo           string         `json:"lastRepo" yaml:"lastRepo"`
	LastBranch         string         `json:"lastBranch" yaml:"lastBranch"`
	Repos              []RepoProgress `json:"repos" yaml:"repos"`
	Paused             []PausedRepo   `json:"paused" yaml:"paused"`
	BatchCounter       int            `json:"batchCounter" yaml:"batchCounter"`
	ActiveBatch        int            `json:"activeBatch" yaml:"activeBatch"`
	SuccessModulo      int            `json:"successModulo" yaml:"successModulo"`
	PublishEvery       int            `json:"publishEvery" yaml:"publishEvery"`
	SuccessGroupStreak int            `json:"successGroupStreak" yaml:"successGroupStreak"`
	FailureGroupStreak int            `json:"failureGroupStreak" yaml:"failureGroupStreak"`
	Processed          int            `json:"processed" yaml:"processed"`
	Done               int            `json:"done" yaml:"done"`
	Total              int            `json:"total" yaml:"total"`
}

// ShowStatus reads state and ledger without taking the lock.
type ShowStatus struct {
	state  domain.StateRepository
	ledger domain.Ledger
	config *domain.Config
}

// NewShowStatus creates a new ShowStatus use case.
func NewShowStatus(state domain.StateRepository, ledger domain.Ledger, config *domain.Config) *ShowStatus {
	return &ShowStatus{
		state:  state,
		ledger: ledger,
		config: config,
	}
}

// Execute builds the status snapshot.
func (uc *ShowStatus) Execute(_ context.Context, _ ShowStatusInput) (*ShowStatusOutput, error) {
	st, err := uc.state.Read()
	if err != nil {
		return nil, err
	}
	file, err := uc.ledger.Load()
	if err != nil {
		return nil, err
	}

	out := &ShowStatusOutput{
		LedgerPath:         uc.config.Ledger.Path,
		LastRepo:           st.LastRepo,
		LastBranch:         st.LastBranch,
		BatchCounter:       st.BatchCounter,
		ActiveBatch:        uc.config.BatchPolicy().Clamp(st.ActiveBatch),
		SuccessModulo:      st.SuccessModulo,
		PublishEvery:       uc.config.Batch.PublishEvery,
		SuccessGroupStreak: st.SuccessGroupStreak,
		FailureGroupStreak: st.FailureGroupStreak,
		Processed:          len(st.ProcessedHashes),
	}
	out.Done, out.Total = file.Counts()

	for _, repo := range file.Repos() {
		p := RepoProgress{Repo: repo}
		for _, section := range file.RepoSections(repo) {
			for _, t := range section.Tasks {
				p.Total++
				if t.Completed {
					p.Done++
				}
			}
		}
		out.Repos = append(out.Repos, p)
	}

	for repo, until := range st.PausedRepos {
		out.Paused = append(out.Paused, PausedRepo{Repo: repo, Until: until})
	}
	sort.Slice(out.Paused, func(i, j int) bool {
		return out.Paused[i].Repo < out.Paused[j].Repo
	})
	return out, nil
}
