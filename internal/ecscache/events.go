package ecscache

// handleEvent is the cache's ObserverBus subscriber (spec.md §4.5). It
// de-duplicates by EventID — the bus may redeliver at-least-once — then
// dispatches table-create events through the bloom probe and
// table-delete events straight to eviction.
func (c *Cache) handleEvent(ev Event) {
	if c.closed.Load() {
		return
	}
	if ev.EventID != 0 {
		if _, seen := c.seenEvents[ev.EventID]; seen {
			return
		}
		c.seenEvents[ev.EventID] = struct{}{}
	}

	switch ev.Kind {
	case EventTableCreate:
		c.onTableCreate(ev.Table)
	case EventTableDelete:
		c.removeTableRecords(ev.Table)
	}
}

// onTableCreate runs the table-create fast path (spec.md §4.5): reject
// via bloom probe before paying for a bound evaluator sweep.
func (c *Cache) onTableCreate(table TableID) {
	if _, already := c.tables[table]; already {
		return
	}
	if !c.world.TableBloomContains(table, c.descriptor.Terms) {
		return
	}

	c.evaluator.Bound(table, func(y QueryYield) bool {
		if !c.descriptor.Flags.MatchEmptyTables {
			if t, ok := c.world.Table(table); ok && t.Count() == 0 {
				return true
			}
		}
		c.addMatch(c.newMatchFromYield(y))
		return true
	})
}
