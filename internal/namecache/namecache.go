// Package namecache implements a bounded, eventually-consistent cache
// mapping native account names to the EVM addresses the eosio.evm
// contract assigned them, backed by the node's v1/chain/get_table_rows
// REST endpoint on a miss. Name lookups go through the account table's
// tertiary index, row-index lookups through the primary one; either kind
// of hit populates both caches. Stale entries are acceptable: a
// name-to-address assignment never changes once made.
package namecache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"

	"github.com/telosnetwork/telos-evm-translator-go/internal/evmblock"
)

const cacheSize = 10_000

// Cache satisfies evmblock.NameResolver.
type Cache struct {
	byName  *lru.Cache
	byIndex *lru.Cache

	httpClient   *http.Client
	httpEndpoint string
}

// New builds a Cache backed by REST lookups against httpEndpoint.
func New(httpEndpoint string) (*Cache, error) {
	byName, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("namecache: name cache: %w", err)
	}
	byIndex, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("namecache: index cache: %w", err)
	}
	return &Cache{
		byName:       byName,
		byIndex:      byIndex,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		httpEndpoint: httpEndpoint,
	}, nil
}

// Resolve returns the EVM address mapped to a native account name,
// consulting the bounded cache before falling back to a tertiary-index
// table-rows lookup.
func (c *Cache) Resolve(ctx context.Context, name uint64) (common.Address, bool, error) {
	if v, ok := c.byName.Get(name); ok {
		return v.(common.Address), true, nil
	}

	row, ok, err := c.fetchRow(ctx, indexPositionTertiary, name)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("namecache: resolve %d: %w", name, err)
	}
	if !ok {
		log.Debug("namecache: empty rows for account name", "name", name)
		return common.Address{}, false, nil
	}

	c.byName.Add(row.Account, row.Address)
	c.byIndex.Add(row.Index, row.Address)
	return row.Address, true, nil
}

// ResolveIndex returns the EVM address mapped to a native account table
// row index, consulting the bounded cache before falling back to a
// primary-index table-rows lookup.
func (c *Cache) ResolveIndex(ctx context.Context, index uint64) (common.Address, bool, error) {
	if v, ok := c.byIndex.Get(index); ok {
		return v.(common.Address), true, nil
	}

	row, ok, err := c.fetchRow(ctx, indexPositionPrimary, index)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("namecache: resolve index %d: %w", index, err)
	}
	if !ok {
		log.Debug("namecache: empty rows for account index", "index", index)
		return common.Address{}, false, nil
	}

	c.byName.Add(row.Account, row.Address)
	c.byIndex.Add(row.Index, row.Address)
	return row.Address, true, nil
}

type indexPosition string

const (
	indexPositionPrimary  indexPosition = "primary"
	indexPositionTertiary indexPosition = "tertiary"
)

type accountRow struct {
	Index   uint64
	Address common.Address
	Account uint64
}

// accountRowWire is the literal JSON shape v1/chain/get_table_rows
// returns for the eosio.evm "account" table with json=true.
type accountRowWire struct {
	Index   uint64 `json:"index"`
	Address string `json:"address"`
	Account string `json:"account"`
}

type getTableRowsResponse struct {
	Rows []accountRowWire `json:"rows"`
	More bool             `json:"more"`
}

type getTableRowsRequest struct {
	Code          string `json:"code"`
	Scope         string `json:"scope"`
	Table         string `json:"table"`
	LowerBound    string `json:"lower_bound"`
	UpperBound    string `json:"upper_bound"`
	IndexPosition string `json:"index_position"`
	KeyType       string `json:"key_type"`
	Limit         int    `json:"limit"`
	JSON          bool   `json:"json"`
}

// fetchRow issues a get_table_rows query against eosio.evm's "account"
// table, scoped by eosio.evm, bounded to exactly one key.
func (c *Cache) fetchRow(ctx context.Context, pos indexPosition, key uint64) (accountRow, bool, error) {
	reqBody := getTableRowsRequest{
		Code:          "eosio.evm",
		Scope:         "eosio.evm",
		Table:         "account",
		LowerBound:    fmt.Sprintf("%d", key),
		UpperBound:    fmt.Sprintf("%d", key),
		IndexPosition: string(pos),
		KeyType:       "i64",
		Limit:         1,
		JSON:          true,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return accountRow{}, false, err
	}

	url := c.httpEndpoint + "/v1/chain/get_table_rows"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return accountRow{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("namecache: fetching account row", "index_position", pos, "key", key)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return accountRow{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return accountRow{}, false, fmt.Errorf("namecache: get_table_rows status %d", resp.StatusCode)
	}

	var out getTableRowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return accountRow{}, false, fmt.Errorf("namecache: decode get_table_rows response: %w", err)
	}
	if len(out.Rows) == 0 {
		return accountRow{}, false, nil
	}

	row := out.Rows[0]
	return accountRow{
		Index:   row.Index,
		Address: common.HexToAddress(row.Address),
		Account: evmblock.EncodeName(row.Account),
	}, true, nil
}
