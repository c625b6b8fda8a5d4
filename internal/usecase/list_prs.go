package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// ListPRsInput contains the input for the ListPRs use case.
type ListPRsInput struct{}

// ListPRsOutput contains the open pull requests of the configured repository.
type ListPRsOutput struct {
	Owner string
	Repo  string
	PRs   []domain.PullRequest
}

// ListPRs lists open pull requests on the remote host.
type ListPRs struct {
	lister domain.PullRequestLister
	config *domain.Config
}

// NewListPRs creates a new ListPRs use case.
func NewListPRs(lister domain.PullRequestLister, config *domain.Config) *ListPRs {
	return &ListPRs{
		lister: lister,
		config: config,
	}
}

// Execute lists open pull requests. Transport failures yield an empty list.
func (uc *ListPRs) Execute(ctx context.Context, _ ListPRsInput) (*ListPRsOutput, error) {
	gh := uc.config.GitHub
	if gh.Owner == "" || gh.Repo == "" {
		return nil, fmt.Errorf("%w: github.owner and github.repo must be set", domain.ErrInvalidConfig)
	}
	return &ListPRsOutput{
		Owner: gh.Owner,
		Repo:  gh.Repo,
		PRs:   uc.lister.ListOpenRequests(ctx, gh.Owner, gh.Repo, gh.Token),
	}, nil
}
