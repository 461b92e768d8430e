package dispenser

import (
	"bytes"
	"encoding/json"
)

// FilterAccounts turns a raw restock value into a pool. Anything that is not a JSON
// array yields an empty pool; elements that are not objects with a non-empty username
// and password are dropped and counted.
func FilterAccounts(raw json.RawMessage) ([]Account, int) {
	accounts := []Account{}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return accounts, 0
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return accounts, 0
	}

	dropped := 0
	for _, item := range items {
		var account Account
		if err := json.Unmarshal(item, &account); err != nil || !account.Valid() {
			dropped++
			continue
		}
		accounts = append(accounts, account)
	}

	return accounts, dropped
}
