package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/groblegark/configstore/internal/client"
)

// Result is the outcome of running one case.
type Result struct {
	Case     Case
	Response *client.LookupResponse
	Err      error
}

// Passed reports whether the case met its expectation.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Check compares a lookup response with the case expectation. Only the
// decoded body is compared: the error object must match exactly, and a
// record must carry exactly the fixture's fields and values.
func Check(c Case, resp *client.LookupResponse) error {
	if resp == nil {
		return fmt.Errorf("%s: no response", c.Name)
	}
	want, err := expected(c.Want)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	if !reflect.DeepEqual(resp.Body, want) {
		got, _ := json.Marshal(resp.Body)
		exp, _ := json.Marshal(want)
		return fmt.Errorf("%s: HTTP %d %s, want %s", c.Name, resp.StatusCode, got, exp)
	}
	return nil
}

// expected renders an expectation the way a JSON client decodes it.
func expected(w Expectation) (map[string]any, error) {
	if w.Record == nil {
		return map[string]any{"error": w.Error}, nil
	}
	b, err := json.Marshal(w.Record)
	if err != nil {
		return nil, fmt.Errorf("encoding expected record: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decoding expected record: %w", err)
	}
	return out, nil
}

// Run sends every case in order and checks each response. A transport
// failure fails that case only.
func Run(ctx context.Context, c client.ConfigClient, cases []Case) []Result {
	results := make([]Result, 0, len(cases))
	for _, tc := range cases {
		resp, err := c.GetConfig(ctx, tc.Body)
		if err == nil {
			err = Check(tc, resp)
		} else {
			err = fmt.Errorf("%s: %w", tc.Name, err)
		}
		results = append(results, Result{Case: tc, Response: resp, Err: err})
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed() {
			out = append(out, r)
		}
	}
	return out
}
