// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianRank/services/ranker/datatypes"
)

// apiClient is a thin JSON client over the ranker HTTP surface.
type apiClient struct {
	base string
	http *http.Client
}

func newClient(base string) *apiClient {
	return &apiClient{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// post sends body as JSON and decodes the response into out (unless
// out is nil). Non-2xx responses are surfaced with the server's error
// message.
func (c *apiClient) post(path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	resp, err := c.http.Post(c.base+path, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	return c.decode(resp, path, out)
}

func (c *apiClient) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	return c.decode(resp, path, out)
}

func (c *apiClient) decode(resp *http.Response, path string, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s: %s (%s)", path, apiErr.Message, apiErr.Error)
		}
		return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *apiClient) health() (datatypes.HealthResponse, error) {
	var out datatypes.HealthResponse
	err := c.get("/api/health", &out)
	return out, err
}

func (c *apiClient) createList() (string, error) {
	var out datatypes.CreateListResponse
	if err := c.post("/api/lists", nil, &out); err != nil {
		return "", err
	}
	return out.ListID, nil
}

func (c *apiClient) tasks(listID string) ([]datatypes.Task, error) {
	var out []datatypes.Task
	err := c.post("/api/tasks", datatypes.ListRequest{ListID: listID}, &out)
	return out, err
}

func (c *apiClient) rankings(listID string) (datatypes.RankingsResponse, error) {
	var out datatypes.RankingsResponse
	err := c.post("/api/rankings", datatypes.ListRequest{ListID: listID}, &out)
	return out, err
}

func (c *apiClient) addComparison(listID, a, b, winner string) error {
	req := datatypes.AddComparisonRequest{
		ListID:        listID,
		TaskAContent:  a,
		TaskBContent:  b,
		WinnerContent: winner,
	}
	return c.post("/api/comparisons/add", req, nil)
}

func (c *apiClient) deleteTask(listID, content string) error {
	return c.post("/api/tasks/delete", datatypes.DeleteTaskRequest{ListID: listID, Content: content}, nil)
}
