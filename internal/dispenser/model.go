package dispenser

import (
	"encoding/json"
	"time"
)

// UsageTimeLayout matches the ISO-8601 form recorded in usage entries.
const UsageTimeLayout = "2006-01-02T15:04:05.000Z"

// Document is the whole persisted state. Every backend stores it as one JSON value.
type Document struct {
	FreeStock []Account           `json:"freeStock"`
	PaidStock []Account           `json:"paidStock"`
	Used      []UsageRecord       `json:"used"`
	Cooldowns map[string]Cooldown `json:"cooldowns"`
}

// Account is an opaque JSON object; only username and password are interpreted.
type Account map[string]any

func (a Account) Username() string {
	v, _ := a["username"].(string)
	return v
}

func (a Account) Password() string {
	v, _ := a["password"].(string)
	return v
}

// Valid reports whether the account carries a non-empty username and password.
func (a Account) Valid() bool {
	return a.Username() != "" && a.Password() != ""
}

type UsageRecord struct {
	Account Account `json:"account"`
	IP      string  `json:"ip"`
	Type    Pool    `json:"type"`
	Time    string  `json:"time"`
}

// Cooldown holds the unix second of the last dispense per pool.
type Cooldown struct {
	Free int64 `json:"free"`
	Paid int64 `json:"paid"`
}

func (c Cooldown) last(pool Pool) int64 {
	if pool == PoolPaid {
		return c.Paid
	}
	return c.Free
}

func (c *Cooldown) set(pool Pool, at int64) {
	if pool == PoolPaid {
		c.Paid = at
		return
	}
	c.Free = at
}

type Status struct {
	Online         bool `json:"online"`
	FreeStock      int  `json:"freeStock"`
	PaidStock      int  `json:"paidStock"`
	TotalGenerated int  `json:"totalGenerated"`
}

type ResetResult struct {
	FreeStock   int `json:"freeStock"`
	PaidStock   int `json:"paidStock"`
	DroppedFree int `json:"-"`
	DroppedPaid int `json:"-"`
}

// NewDocument returns the empty shape written when no document exists yet.
func NewDocument() *Document {
	doc := &Document{}
	doc.Normalize()
	return doc
}

// Normalize replaces nil collections so they encode as [] and {}.
func (d *Document) Normalize() {
	if d.FreeStock == nil {
		d.FreeStock = []Account{}
	}
	if d.PaidStock == nil {
		d.PaidStock = []Account{}
	}
	if d.Used == nil {
		d.Used = []UsageRecord{}
	}
	if d.Cooldowns == nil {
		d.Cooldowns = map[string]Cooldown{}
	}
}

func (d *Document) stock(pool Pool) *[]Account {
	if pool == PoolPaid {
		return &d.PaidStock
	}
	return &d.FreeStock
}

// DecodeDocument parses a stored document. Empty input yields a fresh document.
func DecodeDocument(data []byte) (*Document, error) {
	doc := &Document{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, err
		}
	}
	doc.Normalize()
	return doc, nil
}

// EncodeDocument renders the document the way it is kept on disk.
func EncodeDocument(doc *Document) ([]byte, error) {
	doc.Normalize()
	return json.MarshalIndent(doc, "", "  ")
}

func formatUsageTime(t time.Time) string {
	return t.UTC().Format(UsageTimeLayout)
}
