// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package observability

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/samber/oops"
)

// Status is what a running server reports about itself.
type Status struct {
	Ready    bool          `json:"ready"`
	Sessions []SessionInfo `json:"sessions"`
}

// Probe queries the observability endpoints of the server at addr.
// Sessions is left empty when the server does not expose them.
func Probe(ctx context.Context, client *http.Client, addr string) (*Status, error) {
	if client == nil {
		client = http.DefaultClient
	}
	base := "http://" + addr

	resp, err := get(ctx, client, base+"/healthz/readiness")
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close() //nolint:errcheck // body unused
	status := &Status{Ready: resp.StatusCode == http.StatusOK}

	resp, err = get(ctx, client, base+"/sessions")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return status, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, oops.Code("STATUS_BAD_RESPONSE").
			With("status", resp.StatusCode).
			Errorf("unexpected status from /sessions")
	}
	if err := json.NewDecoder(resp.Body).Decode(&status.Sessions); err != nil {
		return nil, oops.Code("STATUS_BAD_RESPONSE").Wrap(err)
	}
	return status, nil
}

func get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, oops.Code("STATUS_REQUEST_FAILED").With("url", url).Wrap(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, oops.Code("STATUS_UNREACHABLE").With("url", url).Wrap(err)
	}
	return resp, nil
}
