// ABOUTME: This file fetches recently updated studies from the
// ABOUTME: ClinicalTrials.gov v2 API and flattens them into raw items.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pharma-radar/config"
	"pharma-radar/domain"
)

const clinicalTrialsQueryTerm = "pharma OR pharmaceutical OR drug OR medicine"

type ClinicalTrialsFetcher struct {
	baseURL   string
	pageSize  int
	lookback  time.Duration
	maxLength int
	client    *HTTPClient
	logger    *slog.Logger
}

func NewClinicalTrialsFetcher(cfg config.SourcesConfig, client *HTTPClient, logger *slog.Logger) *ClinicalTrialsFetcher {
	return &ClinicalTrialsFetcher{
		baseURL:   cfg.ClinicalTrialsURL,
		pageSize:  cfg.ClinicalTrialsSize,
		lookback:  cfg.Lookback,
		maxLength: cfg.MaxTextLength,
		client:    client,
		logger:    logger,
	}
}

func (f *ClinicalTrialsFetcher) Name() string {
	return "clinical-trials"
}

type studiesResponse struct {
	Studies []study `json:"studies"`
}

type study struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID      string `json:"nctId"`
			BriefTitle string `json:"briefTitle"`
		} `json:"identificationModule"`
		DescriptionModule struct {
			BriefSummary string `json:"briefSummary"`
		} `json:"descriptionModule"`
		ConditionsModule struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
		ArmsInterventionsModule struct {
			Interventions []struct {
				Name string `json:"name"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
		DesignModule struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		StatusModule struct {
			OverallStatus      string `json:"overallStatus"`
			LastUpdatePostDate string `json:"lastUpdatePostDate"`
		} `json:"statusModule"`
	} `json:"protocolSection"`
}

func (f *ClinicalTrialsFetcher) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	now := time.Now()
	requestURL := f.buildURL(now)

	resp, err := f.client.Get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("clinical trials request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed studiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode clinical trials response: %w", err)
	}

	items := make([]domain.RawItem, 0, len(parsed.Studies))
	for _, s := range parsed.Studies {
		items = append(items, f.toRawItem(s, now))
	}

	f.logger.InfoContext(ctx, "clinical trials fetched", "items", len(items))

	return items, nil
}

func (f *ClinicalTrialsFetcher) buildURL(now time.Time) string {
	start := now.Add(-f.lookback).Format("2006-01-02")
	end := now.Format("2006-01-02")

	params := url.Values{}
	params.Set("query.term", clinicalTrialsQueryTerm)
	params.Set("filter.advanced",
		fmt.Sprintf("AREA[LastUpdatePostDate]RANGE[%s, %s]", start, end))
	params.Set("fields", "NCTId,BriefTitle,BriefSummary,Condition,InterventionName,Phase,OverallStatus,LastUpdatePostDate")
	params.Set("pageSize", strconv.Itoa(f.pageSize))
	params.Set("format", "json")

	return f.baseURL + "?" + params.Encode()
}

func (f *ClinicalTrialsFetcher) toRawItem(s study, now time.Time) domain.RawItem {
	proto := s.ProtocolSection

	nctID := proto.IdentificationModule.NCTID
	if nctID == "" {
		nctID = "Unknown"
	}

	title := proto.IdentificationModule.BriefTitle
	if title == "" {
		title = "No title"
	}

	phase := strings.Join(proto.DesignModule.Phases, ", ")
	if phase == "" {
		phase = "Not specified"
	}

	status := proto.StatusModule.OverallStatus
	if status == "" {
		status = "Unknown"
	}

	parts := []string{
		fmt.Sprintf("Clinical Trial %s: %s", nctID, title),
		"Phase: " + phase,
		"Status: " + status,
	}

	if summary := proto.DescriptionModule.BriefSummary; summary != "" {
		parts = append(parts, summary)
	}

	if conditions := strings.Join(proto.ConditionsModule.Conditions, ", "); conditions != "" {
		parts = append(parts, "Conditions: "+conditions)
	}

	var names []string
	for _, intervention := range proto.ArmsInterventionsModule.Interventions {
		if intervention.Name != "" {
			names = append(names, intervention.Name)
		}
	}
	if len(names) > 0 {
		parts = append(parts, "Interventions: "+strings.Join(names, ", "))
	}

	ts := now
	if raw := proto.StatusModule.LastUpdatePostDate; raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			ts = parsed
		}
	}

	return domain.RawItem{
		Text:       Truncate(strings.Join(parts, ". "), f.maxLength),
		Source:     "clinical-trials:" + nctID,
		Timestamp:  ts,
		ExternalID: stringPtr("https://clinicaltrials.gov/study/" + nctID),
	}
}
