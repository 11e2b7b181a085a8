package jobs

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"techstep-backend/internal/shared/metrics"
	"techstep-backend/internal/shared/telemetry"
)

// Repositories is the allow-list of job boards backed by GitHub issues.
var Repositories = []string{
	"frontendbr/vagas",
	"backend-br/vagas",
	"soujava/vagas-java",
	"remotejobsbr/design-ux-vagas",
	"remoteintech/remote-jobs",
	"datascience-br/vagas",
	"dotnetdevbr/vagas",
}

var ErrUnknownRepository = errors.New("repository not available")

type IssueFetcher interface {
	OpenIssues(ctx context.Context, repo string) ([]Listing, error)
}

type Service struct {
	Fetcher IssueFetcher
	Repos   []string
}

func NewService(fetcher IssueFetcher) *Service {
	return &Service{Fetcher: fetcher, Repos: Repositories}
}

// Available returns a copy of the allow-list.
func (s *Service) Available() []string {
	return append([]string(nil), s.Repos...)
}

// Listings fetches one repository, or every allowed one when repo is empty,
// newest first. Repositories that fail are logged and left out.
func (s *Service) Listings(ctx context.Context, repo string) ([]Listing, error) {
	targets := s.Repos
	if repo = strings.TrimSpace(repo); repo != "" {
		if !s.allowed(repo) {
			return nil, ErrUnknownRepository
		}
		targets = []string{repo}
	}

	var (
		mu  sync.Mutex
		all = []Listing{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		g.Go(func() error {
			items, err := s.Fetcher.OpenIssues(gctx, target)
			if err != nil {
				metrics.IncJobsFetchFailed()
				telemetry.Warn("jobs.fetch_failed", map[string]any{"repository": target, "error": err})
				return nil
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// RFC3339 UTC timestamps sort lexically.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt > all[j].PublishedAt
	})
	return all, nil
}

func (s *Service) allowed(repo string) bool {
	for _, r := range s.Repos {
		if r == repo {
			return true
		}
	}
	return false
}
