package namecache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/telos-evm-translator-go/internal/evmblock"
)

func tableRowsServer(t *testing.T, requests *atomic.Int64, rows map[string][]accountRowWire) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chain/get_table_rows", r.URL.Path)
		requests.Add(1)

		var req getTableRowsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eosio.evm", req.Code)
		assert.Equal(t, "account", req.Table)
		assert.Equal(t, 1, req.Limit)

		resp := getTableRowsResponse{Rows: rows[req.IndexPosition+":"+req.LowerBound]}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestResolveCachesHits(t *testing.T) {
	name := evmblock.EncodeName("someacct")
	addr := "0x00000000000000000000000000000000cafebabe"

	var requests atomic.Int64
	srv := tableRowsServer(t, &requests, map[string][]accountRowWire{
		"tertiary:" + uintString(name): {{Index: 7, Address: addr, Account: "someacct"}},
	})
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	got, ok, err := c.Resolve(context.Background(), name)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress(addr), got)
	assert.EqualValues(t, 1, requests.Load())

	// Second lookup is served from the cache.
	got, ok, err = c.Resolve(context.Background(), name)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress(addr), got)
	assert.EqualValues(t, 1, requests.Load())

	// A hit populates the row-index cache too.
	_, ok, err = c.ResolveIndex(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, requests.Load())
}

func TestResolveIndexUsesPrimaryIndex(t *testing.T) {
	addr := "0x00000000000000000000000000000000deadbeef"

	var requests atomic.Int64
	srv := tableRowsServer(t, &requests, map[string][]accountRowWire{
		"primary:9": {{Index: 9, Address: addr, Account: "otheracct"}},
	})
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	got, ok, err := c.ResolveIndex(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress(addr), got)

	// The name cache was populated from the same row.
	_, ok, err = c.Resolve(context.Background(), evmblock.EncodeName("otheracct"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, requests.Load())
}

func TestResolveMissReturnsNotFound(t *testing.T) {
	var requests atomic.Int64
	srv := tableRowsServer(t, &requests, nil)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, ok, err := c.Resolve(context.Background(), evmblock.EncodeName("ghost"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, _, err = c.Resolve(context.Background(), 1)
	assert.Error(t, err)
}

func uintString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
