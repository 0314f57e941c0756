package seasonfile

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/club-stats/internal/domain/season"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
	"github.com/riskibarqy/club-stats/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const maxDocumentBytes = 4 << 20

type ClientConfig struct {
	HTTPClient *http.Client
	// BaseURL is the directory holding `{season}_data.json` files.
	BaseURL string
	Logger  *logging.Logger
	// Location decides what "today" means when filtering schedules.
	Location *time.Location
}

// Client reads the static per-season JSON files. Retries are left to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	location   *time.Location
	now        func() time.Time
	// maxBody caps the document size; larger documents are rejected, not truncated.
	maxBody int64
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		logger:     logger,
		location:   location,
		now:        time.Now,
		maxBody:    maxDocumentBytes,
	}
}

func (c *Client) Name() string {
	return season.SourceFile
}

func (c *Client) Retryable() bool {
	return true
}

func (c *Client) FetchSeason(ctx context.Context, seasonID string) (season.Bundle, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return season.Bundle{}, fmt.Errorf("%w: season id is required", usecase.ErrInvalidInput)
	}
	if c.baseURL == "" {
		return season.Bundle{}, fmt.Errorf("%w: season file base url is empty", usecase.ErrSeasonNotConfigured)
	}

	fullURL := c.baseURL + "/" + url.PathEscape(seasonID+"_data.json")
	raw, err := c.download(ctx, fullURL)
	if err != nil {
		return season.Bundle{}, err
	}

	bundle, err := season.NormalizeDocument(seasonID, raw, c.now().In(c.location))
	if err != nil {
		c.logger.WarnContext(ctx, "season file rejected", "season", seasonID, "error", err)
		return season.Bundle{}, fmt.Errorf("%w: season %s: %w", usecase.ErrValidation, seasonID, err)
	}
	bundle.Source = season.SourceFile
	return bundle, nil
}

func (c *Client) download(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: send request: %v", usecase.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, c.maxBody+1)); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read response body: %v", usecase.ErrSourceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status=%d body=%s", usecase.ErrSourceUnavailable, resp.StatusCode, abbreviateBody(buf.B))
	}
	if int64(buf.Len()) > c.maxBody {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", usecase.ErrValidation, c.maxBody)
	}

	return append([]byte(nil), buf.B...), nil
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
