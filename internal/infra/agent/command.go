package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Ensure CommandClient implements domain.ExecutionClient interface.
var _ domain.ExecutionClient = (*CommandClient)(nil)

var urlRegex = regexp.MustCompile(`https?://\S+`)

// execFunc runs name with args in dir, feeding stdin, and returns stdout.
type execFunc func(ctx context.Context, dir, stdin, name string, args ...string) ([]byte, error)

// CommandClient drives an agent CLI: every request runs the configured command
// through `sh -c` with the prompt on stdin.
// Fields are ordered to minimize memory padding.
type CommandClient struct {
	logger     domain.Logger
	exec       execFunc
	command    string
	workdir    string
	baseBranch string
}

// NewCommandClient creates a CommandClient running command in workdir.
// Pull requests target baseBranch.
func NewCommandClient(command, workdir, baseBranch string, logger domain.Logger) (*CommandClient, error) {
	if strings.TrimSpace(command) == "" {
		return nil, domain.ErrEmptyCommand
	}
	if logger == nil {
		logger = domain.NopLogger{}
	}
	if workdir == "" {
		workdir = "."
	}
	return &CommandClient{
		command:    command,
		workdir:    workdir,
		baseBranch: baseBranch,
		logger:     logger,
		exec:       runProcess,
	}, nil
}

// SubmitBatch runs the agent on the batch prompt and parses its report.
func (c *CommandClient) SubmitBatch(ctx context.Context, batch []domain.TaskBatchItem) (*domain.BatchResult, error) {
	out, err := c.exec(ctx, c.workdir, BatchPrompt(batch), "sh", "-c", c.command)
	if err != nil {
		return nil, fmt.Errorf("submit batch: %w", err)
	}
	result := ParseReport(string(out), batch)
	c.logger.Debug("agent", fmt.Sprintf("batch report: %d succeeded, %d failed", len(result.Successes), len(result.Failures)))
	return result, nil
}

// Ask runs the agent on a free-form prompt and returns its output.
func (c *CommandClient) Ask(ctx context.Context, prompt string) (string, error) {
	out, err := c.exec(ctx, c.workdir, prompt, "sh", "-c", c.command)
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}
	return string(out), nil
}

// CreatePublishRequest pushes the active branch and opens a pull request with gh.
func (c *CommandClient) CreatePublishRequest(ctx context.Context, summary, description string) (*domain.PublishResult, error) {
	branch, err := c.ActiveBranch(ctx)
	if err != nil {
		return nil, err
	}
	if branch == "" {
		return nil, errors.New("create pull request: no active branch")
	}

	// Use git command for push (go-git push requires auth config)
	if _, err := c.exec(ctx, c.workdir, "", "git", "push", "-u", "origin", branch); err != nil {
		return nil, fmt.Errorf("push %s: %w", branch, err)
	}

	args := []string{"pr", "create", "--title", summary, "--body", description, "--head", branch}
	if c.baseBranch != "" {
		args = append(args, "--base", c.baseBranch)
	}
	out, err := c.exec(ctx, c.workdir, "", "gh", args...)
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", err)
	}

	return &domain.PublishResult{
		URL:    lastURL(string(out)),
		Branch: branch,
	}, nil
}

// ActiveBranch returns the checked-out branch of the working directory, or "" when HEAD is detached.
func (c *CommandClient) ActiveBranch(_ context.Context) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", nil
	}
	return head.Name().Short(), nil
}

// SelectBranch checks out an existing local branch.
func (c *CommandClient) SelectBranch(_ context.Context, name string) error {
	repo, err := c.open()
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		return fmt.Errorf("checkout %s: %w", name, err)
	}
	c.logger.Info("agent", fmt.Sprintf("checked out %s", name))
	return nil
}

// Close releases nothing; every request is its own process.
func (c *CommandClient) Close() error {
	return nil
}

func (c *CommandClient) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(c.workdir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", c.workdir, err)
	}
	return repo, nil
}

func lastURL(output string) string {
	matches := urlRegex.FindAllString(output, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

func runProcess(ctx context.Context, dir, stdin, name string, args ...string) ([]byte, error) {
	// #nosec G204 - the command comes from the user's own configuration
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
