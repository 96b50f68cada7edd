package types

// QualityData is one quality-scaling stat of a gem after translation lookup.
// Translation and IndexHandles are either both set or both empty.
type QualityData struct {
	Key             string   `json:"key"               bson:"key"`
	ValuePerQuality float64  `json:"value_per_quality" bson:"value_per_quality"`
	Translation     string   `json:"translation"       bson:"translation"`
	IndexHandles    []string `json:"index_handles"     bson:"index_handles"`
}

// Resolved reports whether a translation was found for the stat.
func (q QualityData) Resolved() bool {
	return q.Translation != ""
}

// Gem is a single skill or support record extracted from a source document.
type Gem struct {
	ID        string        `json:"id"        bson:"id"`
	Name      string        `json:"name"      bson:"name"`
	Qualities []QualityData `json:"qualities" bson:"qualities"`
}

// Clone returns a deep copy so callers never share QualityData between gems.
func (g *Gem) Clone() *Gem {
	clone := &Gem{
		ID:        g.ID,
		Name:      g.Name,
		Qualities: make([]QualityData, len(g.Qualities)),
	}
	for i, q := range g.Qualities {
		q.IndexHandles = append([]string(nil), q.IndexHandles...)
		clone.Qualities[i] = q
	}
	return clone
}

// Category identifies one of the source documents, e.g. "active_dex".
type Category struct {
	Name  string
	Title string
	URL   string
}

// CategoryResult holds the outcome of processing one category. Err is set when
// the source document could not be fetched; Gems is then empty.
type CategoryResult struct {
	Category Category
	Gems     []Gem
	Err      error
}

// Fetched reports whether the category's source document was retrieved.
// A fetched category may still hold zero gems.
func (r *CategoryResult) Fetched() bool {
	return r.Err == nil
}

// GemCollection maps categories to their gems, keeping the configured category order.
type GemCollection struct {
	order   []string
	results map[string]*CategoryResult
}

// NewGemCollection creates an empty collection.
func NewGemCollection() *GemCollection {
	return &GemCollection{
		results: make(map[string]*CategoryResult),
	}
}

// Set records the result for a category. Setting an existing category replaces
// its result without changing its position.
func (c *GemCollection) Set(result CategoryResult) {
	name := result.Category.Name
	if _, ok := c.results[name]; !ok {
		c.order = append(c.order, name)
	}
	r := result
	c.results[name] = &r
}

// Get returns the result for a category name.
func (c *GemCollection) Get(name string) (*CategoryResult, bool) {
	r, ok := c.results[name]
	return r, ok
}

// Results returns all category results in insertion order.
func (c *GemCollection) Results() []*CategoryResult {
	out := make([]*CategoryResult, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.results[name])
	}
	return out
}

// Len returns the number of categories in the collection.
func (c *GemCollection) Len() int {
	return len(c.order)
}

// GemCount returns the total number of gems across all categories.
func (c *GemCollection) GemCount() int {
	n := 0
	for _, r := range c.results {
		n += len(r.Gems)
	}
	return n
}
