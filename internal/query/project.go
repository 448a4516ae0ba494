package query

// Project applies p to items. With an empty projection the items are
// returned untouched; otherwise each item becomes a Doc with only the
// selected keys. Inclusion always keeps "id".
func Project[T any](items []T, p Projection) (interface{}, error) {
	if p.Empty() {
		return items, nil
	}

	selected := make(map[string]bool, len(p.Fields)+1)
	for _, f := range p.Fields {
		selected[f] = true
	}
	if !p.Exclude {
		selected["id"] = true
	}

	out := make([]Doc, 0, len(items))
	for _, it := range items {
		d, err := ToDoc(it)
		if err != nil {
			return nil, err
		}

		for k := range d {
			if selected[k] == p.Exclude {
				delete(d, k)
			}
		}
		out = append(out, d)
	}
	return out, nil
}
