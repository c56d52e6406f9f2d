// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

// Package selectors is the analyzer's external collaborator for resolving
// 4-byte selectors back to candidate textual signatures.
// The analyzer core depends only on the Client interface; StaticClient and
// HTTPClient are interchangeable concrete backends.
package selectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/sync/singleflight"

	"github.com/coreforensic/evmforensic/cache"
)

// Kind discriminates which selector namespace is being resolved.
type Kind int

const (
	Function Kind = iota
	Error
	Event
)

// Client resolves a 4-byte selector, hex-encoded without 0x prefix, to an
// ordered list of candidate signatures, best first. An empty result means
// no candidates were found; it is never an error for a miss.
type Client interface {
	Resolve(ctx context.Context, kind Kind, selectorHex string) ([]string, error)
}

// Score ranks a candidate signature:
// score(sig) = 1000 - len(sig) - 3*count_digits(sig). Shorter, less
// digit-heavy signatures are typically less spammy matches.
func Score(sig string) int {
	score := 1000 - len(sig)
	for _, r := range sig {
		if unicode.IsDigit(r) {
			score -= 3
		}
	}
	return score
}

// SortByScore orders sigs best-first by Score, with ties broken by
// original insertion order (a stable sort).
func SortByScore(sigs []string) {
	sort.SliceStable(sigs, func(i, j int) bool { return Score(sigs[i]) > Score(sigs[j]) })
}

func (k Kind) path() string {
	switch k {
	case Error:
		return "error"
	case Event:
		return "event"
	default:
		return "function"
	}
}

func (k Kind) prefix() string {
	switch k {
	case Error:
		return "error."
	case Event:
		return "event."
	default:
		return "selector."
	}
}

// cacheKey mirrors the "selector.<hash>" convention: one namespace per Kind
// so a function selector and an event topic with the same 4 bytes never
// collide in the shared cache.
func cacheKey(kind Kind, selectorHex string) string {
	return kind.prefix() + strings.ToLower(selectorHex)
}

// StaticClient serves candidates from an in-memory dictionary. It is used
// in tests and for fully offline analysis runs.
type StaticClient struct {
	byKey map[string][]string
}

// NewStaticClient builds a StaticClient from a map keyed by cacheKey(kind,
// selectorHex); callers typically construct keys via StaticKey.
func NewStaticClient(entries map[string][]string) *StaticClient {
	c := &StaticClient{byKey: make(map[string][]string, len(entries))}
	for k, v := range entries {
		cp := make([]string, len(v))
		copy(cp, v)
		SortByScore(cp)
		c.byKey[k] = cp
	}
	return c
}

// StaticKey builds the map key StaticClient expects for a given kind and
// selector.
func StaticKey(kind Kind, selectorHex string) string {
	return cacheKey(kind, selectorHex)
}

func (c *StaticClient) Resolve(_ context.Context, kind Kind, selectorHex string) ([]string, error) {
	return c.byKey[cacheKey(kind, selectorHex)], nil
}

// etherfaceResponse mirrors the subset of api.etherface.io's response body
// this client consumes: a list of items, each carrying the candidate
// signature text.
type etherfaceResponse struct {
	Items []struct {
		Text string `json:"text"`
	} `json:"items"`
}

// HTTPClient resolves selectors against an etherface.io-style signature
// database over HTTP, memoizing results in a persistent cache.Store and
// de-duplicating concurrent lookups of the same selector via singleflight.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
	Cache   cache.Store

	group singleflight.Group
}

// NewHTTPClient returns a client pointed at the given base URL (typically
// "https://api.etherface.io/v1/signatures/hash"), backed by store.
func NewHTTPClient(baseURL string, store cache.Store) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{},
		Cache:   store,
	}
}

func (c *HTTPClient) Resolve(ctx context.Context, kind Kind, selectorHex string) ([]string, error) {
	key := cacheKey(kind, selectorHex)

	if c.Cache != nil {
		if raw, ok := c.Cache.Get(key); ok {
			var sigs []string
			if err := json.Unmarshal(raw, &sigs); err == nil {
				return sigs, nil
			}
		}
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, kind, selectorHex)
	})
	if err != nil {
		return nil, err
	}
	sigs := v.([]string)

	if c.Cache != nil {
		if raw, err := json.Marshal(sigs); err == nil {
			c.Cache.Put(key, raw)
		}
	}
	return sigs, nil
}

func (c *HTTPClient) fetch(ctx context.Context, kind Kind, selectorHex string) ([]string, error) {
	url := fmt.Sprintf("%s/%s/%s/1", strings.TrimRight(c.BaseURL, "/"), kind.path(), selectorHex)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("selectors: %s returned status %d", url, resp.StatusCode)
	}

	var parsed etherfaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("selectors: decoding response from %s: %w", url, err)
	}

	sigs := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if name, _, ok := splitSignature(item.Text); ok {
			_ = name
			sigs = append(sigs, item.Text)
		}
	}
	SortByScore(sigs)
	return sigs, nil
}

// splitSignature divides a signature such as "transfer(address,uint256)"
// into its name and argument-list portions, split on the first '('.
func splitSignature(sig string) (name, args string, ok bool) {
	idx := strings.IndexByte(sig, '(')
	if idx < 0 {
		return "", "", false
	}
	return sig[:idx], sig[idx:], true
}
