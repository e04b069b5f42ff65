package dedup

// MatchCounts tallies accepted duplicate pairs per match type.
type MatchCounts struct {
	Exact      int `json:"exact_match"`
	Cleaned    int `json:"cleaned_match"`
	Similarity int `json:"similarity_match"`
}

func (m *MatchCounts) add(matchType MatchType) {
	switch matchType {
	case MatchExact:
		m.Exact++
	case MatchCleaned:
		m.Cleaned++
	case MatchSimilarity:
		m.Similarity++
	}
}

// SongReport aggregates the outcome of one song deduplication run.
type SongReport struct {
	DryRun            bool        `json:"dry_run"`
	CandidatesFetched int         `json:"candidates_fetched"`
	GroupsFound       int         `json:"groups_found"`
	DuplicatesFound   int         `json:"duplicates_found"`
	AliasesAdded      int64       `json:"aliases_added"`
	WriteErrors       int         `json:"write_errors"`
	Matches           MatchCounts `json:"matches"`
	Groups            []SongGroup `json:"groups,omitempty"`
}

// ArtistReport aggregates the outcome of one artist deduplication run,
// including the oracle verification split.
type ArtistReport struct {
	DryRun            bool          `json:"dry_run"`
	CandidatesFetched int           `json:"candidates_fetched"`
	GroupsFound       int           `json:"groups_found"`
	GroupsAccepted    int           `json:"groups_accepted"`
	GroupsDropped     int           `json:"groups_dropped"`
	DuplicatesFound   int           `json:"duplicates_found"`
	AliasesAdded      int64         `json:"aliases_added"`
	WriteErrors       int           `json:"write_errors"`
	Matches           MatchCounts   `json:"matches"`
	OracleCalls       int           `json:"oracle_calls"`
	OracleVerified    int           `json:"oracle_verified"`
	OracleRejected    int           `json:"oracle_rejected"`
	FallbackAccepted  int           `json:"fallback_accepted"`
	Groups            []ArtistGroup `json:"groups,omitempty"`
}
