// Package summary fetches a repository README to present alongside an item
// under review.
package summary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

// maxReadmeBytes caps how much README content a summary carries.
const maxReadmeBytes = 64 << 10

// Service generates project summaries from public GitHub repositories.
type Service struct {
	client  *http.Client
	baseURL string
	log     *logger.Logger
}

// New constructs a summary service. A nil client gets a bounded default.
func New(client *http.Client, log *logger.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("summary")
	}
	return &Service{client: client, baseURL: "https://raw.githubusercontent.com", log: log}
}

// Generate returns a textual summary for the item. Items without a valid
// public GitHub URL, and repositories without a reachable README, yield a
// fallback summary built from the item fields rather than an error.
func (s *Service) Generate(ctx context.Context, it item.Item) string {
	owner, repo, ok := splitRepoURL(it.RepoURL)
	if !ok {
		return fallback(it, "no valid GitHub repository URL provided")
	}

	url := fmt.Sprintf("%s/%s/%s/HEAD/README.md", s.baseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fallback(it, "could not build README request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.WithError(err).Debugf("README fetch for item %s failed", it.ID)
		return fallback(it, "repository could not be reached")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fallback(it, "README.md not found in this repository")
	}
	if resp.StatusCode != http.StatusOK {
		return fallback(it, "repository is private or unavailable")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadmeBytes))
	if err != nil {
		return fallback(it, "README could not be read")
	}
	return string(body)
}

// splitRepoURL extracts owner and repository from a github.com URL.
func splitRepoURL(repoURL string) (owner, repo string, ok bool) {
	idx := strings.Index(repoURL, "github.com/")
	if idx < 0 {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(repoURL[idx+len("github.com/"):], "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}

func fallback(it item.Item, reason string) string {
	return fmt.Sprintf("Summary unavailable: %s.\n\nProject: %s\nTech: %s", reason, it.Name, it.TechStack)
}
