// Package jobsource fetches fresh postings from a paginated JSON jobs feed.
// It is consulted only when the stored job pool is empty.
package jobsource

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
)

const (
	defaultUserAgent = "jobmatch/1.0"
	// Max value for search per page.
	defaultPerPage = 100
	// Pause between page requests.
	defaultPageDelay = 200 * time.Millisecond
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	PageDelay  time.Duration
}

func New(apiURL, token string, l *zap.Logger) *Client {
	return &Client{
		token:  token,
		APIURL: strings.TrimRight(apiURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger.OrNop(l),
		UserAgent: defaultUserAgent,
		PageDelay: defaultPageDelay,
	}
}

func (c *Client) Search(ctx context.Context, params *SearchParams) (*jobs.Postings, error) {
	return c.search(ctx, params)
}
