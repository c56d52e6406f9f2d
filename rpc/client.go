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

// Package rpc is a minimal JSON-RPC-over-HTTP client used only to fetch
// the deployed bytecode of an on-chain contract before handing it to the analyzer. It is not a general JSON-RPC
// client: there is exactly one method on the wire, eth_getCode.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coreforensic/evmforensic/common"
)

// Client fetches deployed bytecode over a JSON-RPC 2.0 HTTP endpoint.
type Client struct {
	url  string
	http *http.Client
}

// Dial returns a Client targeting the given HTTP(S) JSON-RPC endpoint.
func Dial(url string) *Client {
	return &Client{url: url, http: &http.Client{}}
}

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CodeAt returns the deployed bytecode at addr as of the given block tag
// ("latest" if empty), via eth_getCode.
func (c *Client) CodeAt(ctx context.Context, addr common.Address, block string) ([]byte, error) {
	if block == "" {
		block = "latest"
	}
	reqBody := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  "eth_getCode",
		Params:  []interface{}{addr.Hex(), block},
		ID:      1,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc: %s returned status %d", c.url, resp.StatusCode)
	}

	var parsed jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("rpc: decoding response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("rpc: eth_getCode: %s (code %d)", parsed.Error.Message, parsed.Error.Code)
	}

	var hexCode string
	if err := json.Unmarshal(parsed.Result, &hexCode); err != nil {
		return nil, fmt.Errorf("rpc: decoding result: %w", err)
	}
	return common.FromHex(hexCode), nil
}
