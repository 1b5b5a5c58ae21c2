package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"dispenser-monitor/config"
	"dispenser-monitor/internal/parse"
	"dispenser-monitor/internal/store"
)

// Result summarises one polling round.
type Result struct {
	Fetched  int
	Ingested int
	Skipped  int
	Failed   int
}

// Service polls the sensor gateway and records every sample it returns.
type Service struct {
	cfg    config.IngestConfig
	sink   Sink
	loc    *time.Location
	client *http.Client
}

// NewService creates and initializes a new gateway poller.
func NewService(cfg config.IngestConfig, sink Sink) (*Service, error) {
	loc, err := parse.Location(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn().Err(err).Str("proxy", cfg.HTTPProxy).Msg("invalid proxy URL; gateway requests will not use a proxy")
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg:  cfg,
		sink: sink,
		loc:  loc,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}, nil
}

// Run polls the gateway every configured interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Info().Msg("gateway ingestion is disabled; not starting")
		return
	}
	log.Info().Dur("interval", s.cfg.Interval).Msg("starting gateway ingestion")

	s.PollOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway ingestion shutting down")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// PollOnce fetches every page from the gateway and records the samples.
// Samples fetched before a page error are still recorded.
func (s *Service) PollOnce(ctx context.Context) (Result, error) {
	var res Result
	samples, fetchErr := s.fetchAll(ctx)
	res.Fetched = len(samples)
	if fetchErr != nil {
		log.Error().Err(fetchErr).Int("fetched", len(samples)).Msg("gateway fetch failed")
	}

	for _, sample := range samples {
		logger := log.With().Str("serial", sample.Serial).Logger()

		in, err := sample.Input(s.loc)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping malformed sample")
			res.Skipped++
			continue
		}
		if _, err := s.sink.IngestReading(ctx, sample.Serial, in); err != nil {
			if errors.Is(err, store.ErrDeviceNotFound) {
				logger.Warn().Msg("skipping sample for unregistered device")
				res.Skipped++
				continue
			}
			logger.Error().Err(err).Msg("failed to record sample")
			res.Failed++
			continue
		}
		res.Ingested++
	}

	log.Info().
		Int("fetched", res.Fetched).
		Int("ingested", res.Ingested).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("gateway poll finished")
	return res, fetchErr
}

// fetchAll pages until the gateway's reported total is reached. The configured
// pageSize is only a request; the gateway may return smaller pages.
func (s *Service) fetchAll(ctx context.Context) ([]Sample, error) {
	var all []Sample
	for page := 1; ; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			return all, fmt.Errorf("page %d: %w", page, err)
		}
		if len(resp.Data.Items) == 0 {
			if len(all) < resp.Data.Total {
				log.Warn().Int("page", page).Int("total", resp.Data.Total).Int("fetched", len(all)).Msg("gateway returned an empty page before its total")
			}
			break
		}
		all = append(all, resp.Data.Items...)
		log.Debug().
			Int("page", page).
			Int("page_size", resp.Data.PageSize).
			Int("total", resp.Data.Total).
			Int("fetched", len(all)).
			Msg("fetched gateway page")
		if len(all) >= resp.Data.Total {
			break
		}
	}
	return all, nil
}

func (s *Service) fetchPage(ctx context.Context, page int) (*GatewayResponse, error) {
	payload := make(map[string]any, len(s.cfg.Request.Payload)+2)
	if s.cfg.Request.PageSize > 0 {
		payload["pageSize"] = s.cfg.Request.PageSize
	}
	for k, v := range s.cfg.Request.Payload {
		payload[k] = v
	}
	payload["page"] = page

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Request.URL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.cfg.Request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var gwResp GatewayResponse
	if err := json.Unmarshal(body, &gwResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gateway response: %w", err)
	}
	if gwResp.Code != 0 {
		return nil, fmt.Errorf("gateway returned non-zero application code: %d", gwResp.Code)
	}
	return &gwResp, nil
}
