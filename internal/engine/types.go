// Package engine holds the pokedex domain model, the lookup aggregator that
// fans a primary search out into its secondary attribute calls, and the
// navigation state machine that gates those lookups.
package engine

// PrimaryRecord is the result of the search call. ID is the navigation anchor.
type PrimaryRecord struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	PrimaryType      string `json:"primary_type"`
	HeightDecimetres int    `json:"height_dm"`
	WeightDecigrams  int    `json:"weight_dg"`
	SpriteURL        string `json:"sprite_url"`
}

// MoveEntry is a move learned by level-up. Power and Accuracy are nil for
// status moves that have no such value.
type MoveEntry struct {
	Name        string `json:"name"`
	Level       int    `json:"level"`
	MoveType    string `json:"type"`
	PowerPoints int    `json:"pp"`
	Power       *int   `json:"power"`
	Accuracy    *int   `json:"accuracy"`
}

// StatEntry is a single base stat.
type StatEntry struct {
	Name      string `json:"name"`
	BaseValue int    `json:"base_value"`
}

// AbilityEntry is a single ability.
type AbilityEntry struct {
	Name     string `json:"name"`
	IsHidden bool   `json:"is_hidden"`
}

// AggregatedRecord is the primary record merged with its three secondary
// attribute sets. It is the only thing handed to renderers. Records built by
// the Aggregator never carry nil slices; a failed secondary call shows up as
// an empty one.
type AggregatedRecord struct {
	PrimaryRecord

	Moves     []MoveEntry    `json:"moves"`
	Stats     []StatEntry    `json:"stats"`
	Abilities []AbilityEntry `json:"abilities"`
}
