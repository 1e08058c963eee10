// Package domain defines the core entities of the study engine: words,
// per-word learning records, study sessions and review logs. Entities are
// plain structs with validation; scheduling math lives in the external
// flux package and is adapted in internal/srs.
package domain
