package dispenser

import "time"

const defaultCooldown = 60 * time.Second

// CooldownPolicy gates how often one address may dispense from each pool.
type CooldownPolicy struct {
	Free time.Duration
	Paid time.Duration
}

func DefaultCooldownPolicy() CooldownPolicy {
	return CooldownPolicy{Free: defaultCooldown, Paid: defaultCooldown}
}

func (p CooldownPolicy) Window(pool Pool) time.Duration {
	if pool == PoolPaid {
		return p.Paid
	}
	return p.Free
}

// Ready reports whether address may dispense from pool at now. Elapsed time is
// measured in whole seconds against the recorded mark; a missing mark counts as epoch.
func (p CooldownPolicy) Ready(doc *Document, address string, pool Pool, now time.Time) bool {
	elapsed := now.Unix() - doc.Cooldowns[address].last(pool)
	return elapsed >= int64(p.Window(pool)/time.Second)
}

// Until returns when the window opened by the last mark closes.
func (p CooldownPolicy) Until(doc *Document, address string, pool Pool) time.Time {
	return time.Unix(doc.Cooldowns[address].last(pool), 0).Add(p.Window(pool))
}

func (p CooldownPolicy) Mark(doc *Document, address string, pool Pool, now time.Time) {
	if doc.Cooldowns == nil {
		doc.Cooldowns = map[string]Cooldown{}
	}
	cd := doc.Cooldowns[address]
	cd.set(pool, now.Unix())
	doc.Cooldowns[address] = cd
}

// Prune drops addresses whose windows have closed for both pools. A pruned entry
// behaves exactly like a missing one.
func (p CooldownPolicy) Prune(doc *Document, now time.Time) int {
	pruned := 0
	for address := range doc.Cooldowns {
		if p.Ready(doc, address, PoolFree, now) && p.Ready(doc, address, PoolPaid, now) {
			delete(doc.Cooldowns, address)
			pruned++
		}
	}
	return pruned
}
