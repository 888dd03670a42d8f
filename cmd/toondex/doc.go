// Command toondex is the CLI for the unified animated-content catalog: it
// ingests records from the configured sources, merges duplicates, computes
// unified scores, and answers search, relationship, and statistics queries
// against the local database.
package main
