package domain

// Tier identifies which stage of the fallback chain produced a result set.
type Tier string

const (
	TierCache    Tier = "cache"
	TierExternal Tier = "external"
	TierStatic   Tier = "static"
)

// Intent is the coarse classification of a free-text chat message.
type Intent string

const (
	IntentSearch   Intent = "search"
	IntentSupport  Intent = "support"
	IntentGreeting Intent = "greeting"
	IntentHelp     Intent = "help"
)

// ProductRecord is the canonical product shape shared by all sources.
// (ID, Source) is unique; the same real-world product seen through two
// sources keeps two records.
type ProductRecord struct {
	ID          string  `db:"id" json:"id"`
	Source      string  `db:"source" json:"source"` // cache | vendor name | static
	Title       string  `db:"title" json:"title"`
	Description string  `db:"description" json:"description,omitempty"`
	Category    string  `db:"category" json:"category"`
	Gender      string  `db:"gender" json:"gender"` // women | men | kids | unisex
	Color       string  `db:"color" json:"color,omitempty"`
	Price       float64 `db:"price" json:"price"`
	Rating      float64 `db:"rating" json:"rating"`
	ImageURL    string  `db:"image_url" json:"imageUrl,omitempty"`
	ProductURL  string  `db:"product_url" json:"productUrl,omitempty"`
	ContentHash string  `db:"content_hash" json:"-"`
	CreatedAt   string  `db:"created_at" json:"createdAt,omitempty"`
}

// QuotaRecord tracks outbound calls to one external source for one
// calendar month. At most one row exists per (source, month).
type QuotaRecord struct {
	SourceName    string `db:"source_name"`
	MonthKey      string `db:"month_key"` // YYYY-MM
	RequestCount  int    `db:"request_count"`
	LastRequestAt string `db:"last_request_at"`
}

// ParsedQuery is the structured form of a free-text request. Zero values
// mean "not present in the text"; MaxPrice 0 means no ceiling.
type ParsedQuery struct {
	Intent   Intent  `json:"intent"`
	Category string  `json:"category,omitempty"`
	Color    string  `json:"color,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	MaxPrice float64 `json:"maxPrice,omitempty"`
}

// Resolution is the fallback resolver's answer: the records, the tier
// that produced them, and the filters that were applied.
type Resolution struct {
	Results        []ProductRecord `json:"results"`
	Tier           Tier            `json:"tier"`
	FiltersApplied ParsedQuery     `json:"filtersApplied"`
}

// ConversationMessage is one turn of a chat session.
type ConversationMessage struct {
	ID        string `db:"id" json:"id"`
	SessionID string `db:"session_id" json:"sessionId"`
	Role      string `db:"role" json:"role"` // user | assistant
	Content   string `db:"content" json:"content"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}
