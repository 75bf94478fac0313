package search

// Result is a single bottle hit returned to the caller.
type Result struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Producer string `json:"producer"`
	Region   string `json:"region"`
	Vintage  int    `json:"vintage"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Snippet  string `json:"snippet,omitempty"`
}

// Query describes a cellar search request.
type Query struct {
	Text           string
	FilterCategory string // empty = all categories
	OnlyInStock    bool
	Limit          int
	Offset         int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over the cellar.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push bottles into a search index.
type Indexer interface {
	IndexBottle(b BottleRecord) error
	DeleteBottle(id string) error
}

// BottleRecord is the data we index for a cellar bottle.
type BottleRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Producer string `json:"producer"`
	Region   string `json:"region"`
	Vintage  int    `json:"vintage"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}
