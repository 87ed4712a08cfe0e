// Package model defines the data structures shared between the scraping
// pipeline and the persistence layer: the per-site ProductRecord, the
// sentinel strings for extraction misses, and the snapshot file shape.
package model
