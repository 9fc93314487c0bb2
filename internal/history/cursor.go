package history

// Cursor walks a list of prompts, oldest first, starting past the newest
// one. The prompt being edited when navigation starts is kept as a draft and
// returned when walking forward past the newest prompt.
type Cursor struct {
	prompts []string
	index   int
	draft   string
}

// NewCursor returns a cursor over prompts ordered oldest to newest.
func NewCursor(prompts []string) *Cursor {
	ps := append([]string(nil), prompts...)
	return &Cursor{prompts: ps, index: len(ps)}
}

// Prev returns the next older prompt. current is saved as the draft when
// navigation starts. It reports false at the oldest prompt.
func (c *Cursor) Prev(current string) (string, bool) {
	if c.index == len(c.prompts) {
		c.draft = current
	}
	if c.index == 0 {
		return "", false
	}
	c.index--
	return c.prompts[c.index], true
}

// Next returns the next newer prompt, or the draft after the newest one.
// It reports false when not navigating.
func (c *Cursor) Next() (string, bool) {
	if c.index >= len(c.prompts) {
		return "", false
	}
	c.index++
	if c.index == len(c.prompts) {
		return c.draft, true
	}
	return c.prompts[c.index], true
}

// Reset moves the cursor past the newest prompt and drops the draft.
func (c *Cursor) Reset() {
	c.index = len(c.prompts)
	c.draft = ""
}

// Push appends prompt as the newest entry and resets the cursor.
func (c *Cursor) Push(prompt string) {
	if prompt != "" && (len(c.prompts) == 0 || c.prompts[len(c.prompts)-1] != prompt) {
		c.prompts = append(c.prompts, prompt)
	}
	c.Reset()
}

// Len returns the number of prompts.
func (c *Cursor) Len() int { return len(c.prompts) }
