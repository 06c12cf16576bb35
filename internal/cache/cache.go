package cache

import (
	"strings"
	"time"

	"github.com/KaramelBytes/askcsv/internal/answer"
)

// Entry is one memoized answer.
type Entry struct {
	Key      string        `json:"key" yaml:"key"`
	Question string        `json:"question" yaml:"question"`
	Answer   *answer.Table `json:"answer" yaml:"answer"`
	StoredAt time.Time     `json:"stored_at" yaml:"stored_at"`
}

// Cache memoizes answers by normalized question for the lifetime of one
// session. It has no eviction and is not safe for concurrent use; callers
// serialize access per session.
type Cache struct {
	entries map[string]*Entry
	order   []string
	now     func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: map[string]*Entry{}, now: time.Now}
}

// Key normalizes a question: lower case, surrounding whitespace removed.
// Punctuation and accents are kept as typed.
func Key(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// Get returns the answer stored for question.
func (c *Cache) Get(question string) (*answer.Table, bool) {
	e, ok := c.entries[Key(question)]
	if !ok {
		return nil, false
	}
	return e.Answer, true
}

// Put stores ans under question, replacing any previous answer. A replaced
// key keeps its original position in Entries.
func (c *Cache) Put(question string, ans *answer.Table) {
	k := Key(question)
	if _, ok := c.entries[k]; !ok {
		c.order = append(c.order, k)
	}
	c.entries[k] = &Entry{Key: k, Question: question, Answer: ans, StoredAt: c.now()}
}

// Len reports the number of stored answers.
func (c *Cache) Len() int { return len(c.order) }

// Entries returns the stored answers in first-insertion order.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, *c.entries[k])
	}
	return out
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.entries = map[string]*Entry{}
	c.order = nil
}
