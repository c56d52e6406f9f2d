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

package selectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/coreforensic/evmforensic/cache"
)

func TestScoreFavorsShorterLessDigitHeavySignatures(t *testing.T) {
	if Score("transfer(address,uint256)") <= Score("transfer1(address,uint256)") {
		t.Error("a digit-bearing signature should score lower than its digit-free twin")
	}
	if Score("a()") <= Score("ab()") {
		t.Error("a shorter signature should score higher")
	}
}

func TestSortByScoreOrdersBestFirstAndIsStable(t *testing.T) {
	sigs := []string{"transfer1(address)", "transfer(address)", "xfer(address)"}
	SortByScore(sigs)
	want := []string{"xfer(address)", "transfer(address)", "transfer1(address)"}
	if !reflect.DeepEqual(sigs, want) {
		t.Errorf("got %v, want %v", sigs, want)
	}
}

func TestSortByScoreTieBreaksByInsertionOrder(t *testing.T) {
	sigs := []string{"foo(uint256)", "bar(uint256)"} // equal length, no digits: tied score
	SortByScore(sigs)
	if sigs[0] != "foo(uint256)" || sigs[1] != "bar(uint256)" {
		t.Errorf("got %v, want original order preserved on a tie", sigs)
	}
}

func TestStaticClientResolvesByKind(t *testing.T) {
	c := NewStaticClient(map[string][]string{
		StaticKey(Function, "a9059cbb"): {"transfer(address,uint256)"},
		StaticKey(Event, "a9059cbb"):    {"SomeEvent(address,uint256)"},
	})

	fnSigs, err := c.Resolve(context.Background(), Function, "A9059CBB")
	if err != nil || len(fnSigs) != 1 || fnSigs[0] != "transfer(address,uint256)" {
		t.Fatalf("got %v, %v; want the function-kind match regardless of selector case", fnSigs, err)
	}

	evSigs, _ := c.Resolve(context.Background(), Event, "a9059cbb")
	if len(evSigs) != 1 || evSigs[0] != "SomeEvent(address,uint256)" {
		t.Fatalf("got %v, want the distinct event-kind match for the same 4 bytes", evSigs)
	}
}

func TestStaticClientMissReturnsEmptyNotError(t *testing.T) {
	c := NewStaticClient(nil)
	sigs, err := c.Resolve(context.Background(), Function, "deadbeef")
	if err != nil || len(sigs) != 0 {
		t.Fatalf("got %v, %v; want a nil/empty slice and no error on a miss", sigs, err)
	}
}

func TestHTTPClientFetchesAndCaches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"items":[{"text":"transfer(address,uint256)"}]}`)
	}))
	defer srv.Close()

	store := cache.NewMemStore()
	c := NewHTTPClient(srv.URL, store)

	sigs, err := c.Resolve(context.Background(), Function, "a9059cbb")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(sigs) != 1 || sigs[0] != "transfer(address,uint256)" {
		t.Fatalf("got %v, want [transfer(address,uint256)]", sigs)
	}

	// Second call should be served from cache, not hit the server again.
	if _, err := c.Resolve(context.Background(), Function, "a9059cbb"); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if calls != 1 {
		t.Errorf("server was hit %d times, want 1 (second lookup should be cached)", calls)
	}

	raw, ok := store.Get(cacheKey(Function, "a9059cbb"))
	if !ok {
		t.Fatal("expected the resolved signatures to be persisted in the cache")
	}
	var cached []string
	if err := json.Unmarshal(raw, &cached); err != nil || len(cached) != 1 {
		t.Errorf("cached payload = %s, want a 1-element JSON array", raw)
	}
}

func TestHTTPClientPropagatesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	if _, err := c.Resolve(context.Background(), Function, "a9059cbb"); err == nil {
		t.Error("expected an error on a non-200 response")
	}
}
