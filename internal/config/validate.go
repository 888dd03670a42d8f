package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateRelationships(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateSources() error {
	if err := ensurePositiveFloatMap(map[string]float64{
		"tmdb.requests_per_sec": c.TMDB.RequestsPerSec,
		"mal.requests_per_sec":  c.MAL.RequestsPerSec,
	}); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"tmdb.request_timeout": c.TMDB.RequestTimeout,
		"mal.request_timeout":  c.MAL.RequestTimeout,
	})
}

func (c *Config) validateIngest() error {
	if err := ensurePositiveMap(map[string]int{
		"ingest.page_size":   c.Ingest.PageSize,
		"ingest.max_pages":   c.Ingest.MaxPages,
		"ingest.concurrency": c.Ingest.Concurrency,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.FuzzyThreshold < 0 || c.Matching.FuzzyThreshold > 1 {
		return errors.New("matching.fuzzy_threshold must be between 0 and 1")
	}
	return ensureNonNegativeMap(map[string]int{
		"matching.movie_year_skew":   c.Matching.MovieYearSkew,
		"matching.tv_year_skew":      c.Matching.TVYearSkew,
		"matching.episode_tolerance": c.Matching.EpisodeTolerance,
		"matching.runtime_tolerance": c.Matching.RuntimeTolerance,
	})
}

func (c *Config) validateRelationships() error {
	return ensurePositiveMap(map[string]int{
		"relationships.cache_ttl_seconds": c.Relationships.CacheTTLSeconds,
		"relationships.related_limit":     c.Relationships.RelatedLimit,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}

func ensurePositiveFloatMap(values map[string]float64) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
