package model

import "time"

// Category is the coarse scam classification derived from keyword heuristics
// or supplied by a pattern report.
type Category string

const (
	CategoryFakeLinks       Category = "fake_links"
	CategoryUrgentPayment   Category = "urgent_payment"
	CategoryPersonalInfo    Category = "personal_info"
	CategoryFakeAuthority   Category = "fake_authority"
	CategoryTooGoodToBeTrue Category = "too_good_to_be_true"
	CategoryOther           Category = "other"
)

// Categories lists every valid category value.
var Categories = []Category{
	CategoryFakeLinks,
	CategoryUrgentPayment,
	CategoryPersonalInfo,
	CategoryFakeAuthority,
	CategoryTooGoodToBeTrue,
	CategoryOther,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Severity bands a pattern by how many red flags the model fixed.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Difference is one aspect where the scam message diverges from how an
// official sender would phrase it. Owned by its parent AnalysisResult;
// ordering is whatever the model returned.
type Difference struct {
	Aspect   string `json:"aspect"`
	Scam     string `json:"scam"`
	Official string `json:"official"`
	Status   string `json:"status"`
}

// ToneComparison contrasts the scam tone with the official tone.
type ToneComparison struct {
	Scam     string `json:"scam"`
	Official string `json:"official"`
}

// AnalysisResult is the validated output of one rewrite call. Immutable after
// creation; re-derived rather than mutated.
type AnalysisResult struct {
	OriginalMessage string         `json:"original_message"`
	SafeVersion     string         `json:"safe_version"`
	Differences     []Difference   `json:"differences"`
	RedFlagsFixed   int            `json:"red_flags_fixed"`
	ToneComparison  ToneComparison `json:"tone_comparison"`
	KeyLearning     string         `json:"key_learning"`
}

// RewriteHistoryRecord is an append-only log entry for one orchestrated
// analysis request, cache hit or miss.
type RewriteHistoryRecord struct {
	RecordID        string       `json:"recordId"`
	UserID          *string      `json:"userId,omitempty"`
	OriginalMessage string       `json:"originalMessage"`
	SafeVersion     string       `json:"safeVersion"`
	Region          string       `json:"region"`
	CreatedAt       time.Time    `json:"createdAt"`
	ResponseTimeMs  int64        `json:"responseTimeMs"`
	Cached          bool         `json:"cached"`
	RedFlagsFixed   int          `json:"redFlagsFixed"`
	Differences     []Difference `json:"differences"`
}

// ScamPattern is a learned, frequency-tracked category of observed scam
// message, identified by a content hash.
type ScamPattern struct {
	PatternHash string    `json:"patternHash"`
	Category    Category  `json:"category"`
	Frequency   int64     `json:"frequency"`
	Examples    []string  `json:"examples"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"createdAt"`
	LastSeen    time.Time `json:"lastSeen"`
	IsActive    bool      `json:"isActive"`
}

// MaxPatternExamples caps the stored example list per pattern.
const MaxPatternExamples = 10

// UserPreferences holds per-user defaults applied to analysis requests.
type UserPreferences struct {
	Region   string `json:"region"`
	Language string `json:"language"`
}

// User is an account tracked for usage statistics.
type User struct {
	Email       string          `json:"email"`
	UsageCount  int64           `json:"usageCount"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastActive  *time.Time      `json:"lastActive,omitempty"`
	IsActive    bool            `json:"isActive"`
	Preferences UserPreferences `json:"preferences"`
}

// HistoryPage is one page of a user's rewrite history.
type HistoryPage struct {
	Records  []*RewriteHistoryRecord `json:"records"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"pageSize"`
	Total    int64                   `json:"total"`
}

// ListHistoryRequest selects a page of history records for one user.
type ListHistoryRequest struct {
	UserID   string
	Page     int
	PageSize int
	// SortAsc orders by creation time ascending; default is newest first.
	SortAsc bool
}

// TrendingPattern is the ranked projection returned by the trending query.
type TrendingPattern struct {
	Category  Category  `json:"category"`
	Frequency int64     `json:"frequency"`
	Severity  Severity  `json:"severity"`
	LastSeen  time.Time `json:"lastSeen"`
	Examples  []string  `json:"examples"`
}

// AnalyticsFilter bounds an analytics query. Zero values mean unbounded.
type AnalyticsFilter struct {
	From   time.Time
	To     time.Time
	Region string
	UserID string
}

// RegionCount pairs a region with its request count.
type RegionCount struct {
	Region string `json:"region"`
	Count  int64  `json:"count"`
}

// DailyCount pairs a day (UTC, truncated) with its request count.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// CategoryCount pairs a pattern category with its aggregate frequency.
type CategoryCount struct {
	Category  Category `json:"category"`
	Frequency int64    `json:"frequency"`
}

// AnalyticsReport aggregates history and pattern data for a filter window.
type AnalyticsReport struct {
	TotalRequests int64           `json:"totalRequests"`
	UniqueUsers   int64           `json:"uniqueUsers"`
	AvgLatencyMs  float64         `json:"avgLatencyMs"`
	CacheHitRate  float64         `json:"cacheHitRate"`
	TopRegions    []RegionCount   `json:"topRegions"`
	DailyCounts   []DailyCount    `json:"dailyCounts"`
	TopCategories []CategoryCount `json:"topCategories"`
}
