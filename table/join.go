/*
join.go - Left joins between prepared reports

PURPOSE:
  The base report is the left join of the claim lifecycle with the payment
  tracker, country reference, and activity reference tables. This file
  implements that join over in-memory tables.

SEMANTICS:
  - Left join: every left row survives; unmatched right columns are Missing.
  - A left row matching multiple right rows is expanded once per match.
  - Keys compare by rendered cell value, so a numeric 42 matches a text "42"
    only if both render identically.

SEE ALSO:
  - errors.go: JoinKeyError
*/
package table

// LeftJoin joins right onto left by the named key column. The key must be
// declared on both sides or a JoinKeyError is returned. Right-side columns
// already declared on the left (other than the key) are dropped.
func LeftJoin(left, right *Table, key string) (*Table, error) {
	if !left.HasColumn(key) {
		return nil, &JoinKeyError{Key: key, Side: "left"}
	}
	if !right.HasColumn(key) {
		return nil, &JoinKeyError{Key: key, Side: "right"}
	}

	// Index right rows by key, preserving match order.
	index := make(map[string][]Row, right.Len())
	for _, r := range right.rows {
		k := r[key].String()
		index[k] = append(index[k], r)
	}

	var joined []string
	for _, c := range right.columns {
		if c != key && !left.HasColumn(c) {
			joined = append(joined, c)
		}
	}

	out := New(append(left.Columns(), joined...)...)
	for _, lr := range left.rows {
		matches := index[lr[key].String()]
		if len(matches) == 0 {
			out.Append(lr)
			continue
		}
		for _, rr := range matches {
			row := lr.Clone()
			for _, c := range joined {
				row[c] = rr[c]
			}
			out.Append(row)
		}
	}
	return out, nil
}
