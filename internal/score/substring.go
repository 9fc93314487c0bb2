package score

// Substring matches the prompt literally. Earlier matches and shorter
// ordinals rank better.
type Substring struct{}

// Score implements Scorer.
func (Substring) Score(prompt, ordinal string) (float64, []Range) {
	if prompt == "" {
		return 1, nil
	}

	sensitive := SmartCase(prompt)
	query := []rune(prompt)
	text := decode(ordinal)

	for start := 0; start+len(query) <= len(text.runes); start++ {
		matched := true
		for i, r := range query {
			if !runeEqual(text.runes[start+i], r, sensitive) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		end := start + len(query) - 1
		penalty := float64(start) + float64(len(text.runes))/64
		return penalty, []Range{{Start: text.offs[start], End: text.byteEnd(end)}}
	}
	return Reject, nil
}
