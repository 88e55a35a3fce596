// Package enricher runs the bookmark enrichment pipeline:
// scrape -> summarize -> persist -> embed -> categorize.
//
// Every step except primary persistence is best-effort. A dead page,
// an unreachable model, or a failed embedding never blocks saving the
// bookmark; the Report tells the caller which steps ran, were skipped,
// or failed.
package enricher
