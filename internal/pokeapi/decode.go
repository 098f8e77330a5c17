package pokeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rshade/pokedex/internal/engine"
)

// flexInt decodes integers the backend may send either as JSON numbers or
// as decimal strings. null and "" leave it unset.
type flexInt struct {
	value int
	set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexInt{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*f = flexInt{}
			return nil
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", raw, err)
	}
	*f = flexInt{value: n, set: true}
	return nil
}

func (f flexInt) ptr() *int {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

type searchResponse struct {
	Name   string  `json:"name"`
	Number flexInt `json:"number"`
	ID     flexInt `json:"id"`
	Type   string  `json:"type"`
	Height flexInt `json:"height"`
	Weight flexInt `json:"weight"`
	Sprite string  `json:"sprite"`
}

func (r searchResponse) record() engine.PrimaryRecord {
	id := r.Number.value
	if !r.Number.set {
		id = r.ID.value
	}
	return engine.PrimaryRecord{
		ID:               id,
		Name:             r.Name,
		PrimaryType:      r.Type,
		HeightDecimetres: r.Height.value,
		WeightDecigrams:  r.Weight.value,
		SpriteURL:        r.Sprite,
	}
}

type movesResponse struct {
	Moves []struct {
		Name     string  `json:"name"`
		Level    flexInt `json:"level"`
		Type     string  `json:"type"`
		Power    flexInt `json:"power"`
		Accuracy flexInt `json:"accuracy"`
		PP       flexInt `json:"pp"`
	} `json:"moves"`
}

func (r movesResponse) entries() []engine.MoveEntry {
	out := make([]engine.MoveEntry, 0, len(r.Moves))
	for _, m := range r.Moves {
		out = append(out, engine.MoveEntry{
			Name:        m.Name,
			Level:       m.Level.value,
			MoveType:    m.Type,
			PowerPoints: m.PP.value,
			Power:       m.Power.ptr(),
			Accuracy:    m.Accuracy.ptr(),
		})
	}
	return out
}

type statsResponse struct {
	Stats []struct {
		Name     string  `json:"name"`
		BaseStat flexInt `json:"base_stat"`
	} `json:"stats"`
}

func (r statsResponse) entries() []engine.StatEntry {
	out := make([]engine.StatEntry, 0, len(r.Stats))
	for _, s := range r.Stats {
		out = append(out, engine.StatEntry{Name: s.Name, BaseValue: s.BaseStat.value})
	}
	return out
}

type abilitiesResponse struct {
	Abilities []struct {
		Name     string `json:"name"`
		IsHidden bool   `json:"is_hidden"`
	} `json:"abilities"`
}

func (r abilitiesResponse) entries() []engine.AbilityEntry {
	out := make([]engine.AbilityEntry, 0, len(r.Abilities))
	for _, a := range r.Abilities {
		out = append(out, engine.AbilityEntry{Name: a.Name, IsHidden: a.IsHidden})
	}
	return out
}
