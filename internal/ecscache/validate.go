package ecscache

// ValidateSignature checks a query descriptor against the restrictions
// this cache imposes (spec.md §1, §7): no filter-only terms, no named
// variables other than $this, at most one cascade term, cascade never
// combined with a user-supplied group_by, and order_by naming only a
// component this query actually terms on. Called by New, and exposed
// separately so callers can reject an unsupported query before paying
// for construction.
func ValidateSignature(desc QueryDescriptor) error {
	for i, t := range desc.Terms {
		if t.InOut == InOutFilter {
			return &TermError{TermIndex: i, Field: "inout", Reason: "filter-only terms are unsupported"}
		}
		if !t.Src.isSupported() {
			return &TermError{TermIndex: i, Field: "src", Reason: "named variable source is unsupported"}
		}
		if !t.First.isSupported() {
			return &TermError{TermIndex: i, Field: "first", Reason: "named variables other than $this are unsupported"}
		}
		if !t.Second.isSupported() {
			return &TermError{TermIndex: i, Field: "second", Reason: "named variables other than $this are unsupported"}
		}
	}

	cascadeCount := 0
	for _, t := range desc.Terms {
		if t.Cascade {
			cascadeCount++
		}
	}
	if cascadeCount > 1 {
		return &GroupingError{Reason: "at most one term may set Cascade"}
	}
	if cascadeCount == 1 && (desc.GroupBy != 0 || desc.GroupByCallback != nil) {
		return &GroupingError{Reason: "cascade cannot be combined with a user-supplied group_by"}
	}

	if desc.OrderBy != 0 && !queriesComponent(desc.Terms, desc.OrderBy) {
		return &OrderByError{ComponentID: desc.OrderBy}
	}

	return nil
}

// queriesComponent reports whether id appears as a term's resolved id —
// this cache has no Or-term concept, so every term is an And term.
func queriesComponent(terms []Term, id ComponentID) bool {
	for _, t := range terms {
		if t.ID == id {
			return true
		}
	}
	return false
}
