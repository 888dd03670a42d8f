package config

const (
	defaultDataDir  = "~/.local/share/toondex"
	defaultLogDir   = "~/.local/share/toondex/logs"
	defaultLogLevel = "info"
	// defaultLogFormat selects the human console handler; services use "json".
	defaultLogFormat = "console"

	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultTMDBLanguage       = "en-US"
	defaultTMDBRequestsPerSec = 4.0
	defaultTMDBTimeoutSeconds = 30

	defaultMALBaseURL        = "https://api.myanimelist.net/v2"
	defaultMALRequestsPerSec = 3.0
	defaultMALTimeoutSeconds = 30

	defaultIngestPageSize    = 20
	defaultIngestMaxPages    = 25
	defaultIngestConcurrency = 1

	defaultFuzzyThreshold   = 0.85
	defaultMovieYearSkew    = 1
	defaultTVYearSkew       = 2
	defaultEpisodeTolerance = 5
	defaultRuntimeTolerance = 30

	defaultRelationshipCacheTTL = 600 // seconds
	defaultRelatedLimit         = 6
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			RequestsPerSec: defaultTMDBRequestsPerSec,
			RequestTimeout: defaultTMDBTimeoutSeconds,
			IncludeMovies:  true,
			IncludeTVShows: true,
		},
		MAL: MAL{
			BaseURL:        defaultMALBaseURL,
			RequestsPerSec: defaultMALRequestsPerSec,
			RequestTimeout: defaultMALTimeoutSeconds,
		},
		Ingest: Ingest{
			PageSize:    defaultIngestPageSize,
			MaxPages:    defaultIngestMaxPages,
			Concurrency: defaultIngestConcurrency,
		},
		Matching: Matching{
			FuzzyThreshold:   defaultFuzzyThreshold,
			MovieYearSkew:    defaultMovieYearSkew,
			TVYearSkew:       defaultTVYearSkew,
			EpisodeTolerance: defaultEpisodeTolerance,
			RuntimeTolerance: defaultRuntimeTolerance,
		},
		Relationships: Relationships{
			CacheTTLSeconds: defaultRelationshipCacheTTL,
			RelatedLimit:    defaultRelatedLimit,
		},
	}
}
