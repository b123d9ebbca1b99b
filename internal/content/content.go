// Package content implements the read-only content store. A pack is a
// JSON file holding the items for one content type; it is loaded once
// at startup and never written. Which JSON keys carry the hook, body
// and closing text is part of the content-type configuration, so packs
// authored for different generators keep their original field names.
package content

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/textx"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// Item is one content record: the text for one video
type Item struct {
	ID             int
	Category       string
	Hook           string
	Body           string
	Closing        string
	DurationTarget float64 // seconds, 0 when the pack does not set one
}

// Fields names the JSON keys that carry the text of an item, plus the
// top-level key holding the item array. Zero values fall back to the
// canonical names.
type Fields struct {
	Items   string // top-level array field; "" tries "items", then the type name
	Hook    string
	Body    string
	Closing string
}

func (f Fields) withDefaults() Fields {
	if f.Hook == "" {
		f.Hook = "hook"
	}
	if f.Body == "" {
		f.Body = "body_text"
	}
	if f.Closing == "" {
		f.Closing = "closing_text"
	}
	return f
}

// Pack is an immutable set of items loaded from one JSON file
type Pack struct {
	typeName string
	items    []Item
	byID     map[int]int // id -> index into items
}

// LoadPack reads and validates a content pack. IDs must be unique and
// every item needs a category and a non-blank hook; body and closing
// may be empty (the renderer tolerates textless frames).
func LoadPack(typeName, path string, fields Fields) (*Pack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kiinerrors.New(fmt.Sprintf("content pack not found: %s", path)).
				WithCode(kiinerrors.CodeMissingConfig).
				WithDetail("type", typeName).
				WithDetail("path", path)
		}
		return nil, kiinerrors.Wrap(err, "failed to read content pack").
			WithCode(kiinerrors.CodeConfig).
			WithDetail("type", typeName).
			WithDetail("path", path)
	}

	rawItems, err := decodeItems(raw, typeName, fields.Items)
	if err != nil {
		return nil, kiinerrors.Wrap(err, fmt.Sprintf("malformed content pack %s", path)).
			WithCode(kiinerrors.CodeInvalidConfig).
			WithDetail("type", typeName).
			WithDetail("path", path)
	}
	if len(rawItems) == 0 {
		return nil, kiinerrors.New(fmt.Sprintf("content pack %s has no items", path)).
			WithCode(kiinerrors.CodeInvalidConfig).
			WithDetail("type", typeName).
			WithDetail("path", path)
	}

	fields = fields.withDefaults()

	pack := &Pack{
		typeName: typeName,
		items:    make([]Item, 0, len(rawItems)),
		byID:     make(map[int]int, len(rawItems)),
	}

	for i, rawItem := range rawItems {
		item, err := parseItem(rawItem, fields)
		if err != nil {
			return nil, kiinerrors.Wrap(err, fmt.Sprintf("invalid item %d in %s", i, path)).
				WithCode(kiinerrors.CodeMissingField).
				WithDetail("type", typeName).
				WithDetail("index", i)
		}
		if _, dup := pack.byID[item.ID]; dup {
			return nil, kiinerrors.New(fmt.Sprintf("duplicate item id %d in %s", item.ID, path)).
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("type", typeName).
				WithDetail("id", item.ID)
		}
		pack.byID[item.ID] = len(pack.items)
		pack.items = append(pack.items, item)
	}

	return pack, nil
}

// decodeItems accepts either a bare JSON array or an object holding the
// array under a named top-level field. The field name comes from the
// content-type configuration; "items" and the type's own name are tried
// as fallbacks, so {"tips": [...]} loads for the tips type without any
// configuration.
func decodeItems(raw []byte, typeName, itemsField string) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	tried := make([]string, 0, 3)
	for _, key := range []string{itemsField, "items", typeName} {
		if key == "" || containsKey(tried, key) {
			continue
		}
		tried = append(tried, key)
		rawList, ok := doc[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(rawList, &list); err != nil {
			return nil, fmt.Errorf("field %q is not an array of items", key)
		}
		return list, nil
	}
	return nil, fmt.Errorf("no item array under %s", strings.Join(tried, ", "))
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func parseItem(raw json.RawMessage, fields Fields) (Item, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Item{}, err
	}

	item := Item{}

	idVal, ok := m["id"]
	if !ok {
		return Item{}, fmt.Errorf("missing required field id")
	}
	idNum, ok := idVal.(float64)
	if !ok || idNum != float64(int(idNum)) {
		return Item{}, fmt.Errorf("field id must be an integer")
	}
	item.ID = int(idNum)

	item.Category = stringField(m, "category")
	if textx.IsBlank(item.Category) {
		return Item{}, fmt.Errorf("item %d: missing required field category", item.ID)
	}

	item.Hook = stringField(m, fields.Hook)
	if textx.IsBlank(item.Hook) {
		return Item{}, fmt.Errorf("item %d: missing required field %s", item.ID, fields.Hook)
	}

	item.Body = stringField(m, fields.Body)
	item.Closing = stringField(m, fields.Closing)

	if v, ok := m["duration_target"]; ok {
		f, ok := v.(float64)
		if !ok || f <= 0 {
			return Item{}, fmt.Errorf("item %d: duration_target must be a positive number", item.ID)
		}
		item.DurationTarget = f
	}

	return item, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// TypeName returns the content type this pack was loaded for
func (p *Pack) TypeName() string {
	return p.typeName
}

// Len returns the number of items in the pack
func (p *Pack) Len() int {
	return len(p.items)
}

// Item returns the item with the given id
func (p *Pack) Item(id int) (Item, error) {
	idx, ok := p.byID[id]
	if !ok {
		return Item{}, kiinerrors.New(fmt.Sprintf("no item %d in %s pack", id, p.typeName)).
			WithCode(kiinerrors.CodeNotFound).
			WithDetail("type", p.typeName).
			WithDetail("id", id)
	}
	return p.items[idx], nil
}

// Items returns a copy of all items in pack order
func (p *Pack) Items() []Item {
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

// ByCategory returns all items in the given category, in pack order
func (p *Pack) ByCategory(category string) []Item {
	var out []Item
	for _, item := range p.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// Categories returns the distinct categories in the pack, sorted
func (p *Pack) Categories() []string {
	seen := make(map[string]bool)
	for _, item := range p.items {
		seen[item.Category] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Random returns one random item, optionally restricted to a category.
// An empty category means the whole pack.
func (p *Pack) Random(rng *rand.Rand, category string) (Item, error) {
	pool := p.items
	if category != "" {
		pool = p.ByCategory(category)
	}
	if len(pool) == 0 {
		return Item{}, kiinerrors.New(fmt.Sprintf("no items in category %q of %s pack", category, p.typeName)).
			WithCode(kiinerrors.CodeNotFound).
			WithDetail("type", p.typeName).
			WithDetail("category", category)
	}
	return pool[rng.Intn(len(pool))], nil
}

// Sample returns n items for a batch run, optionally restricted to a
// category. Without allowRepeats the items are distinct (a shuffled
// prefix of the pool) and asking for more items than the pool holds is
// an error rather than a silent repeat; with allowRepeats each slot is
// an independent draw.
func (p *Pack) Sample(rng *rand.Rand, n int, category string, allowRepeats bool) ([]Item, error) {
	if n <= 0 {
		return nil, kiinerrors.New("sample size must be positive").
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("n", n)
	}

	pool := p.Items()
	if category != "" {
		pool = p.ByCategory(category)
	}
	if len(pool) == 0 {
		return nil, kiinerrors.New(fmt.Sprintf("no items in category %q of %s pack", category, p.typeName)).
			WithCode(kiinerrors.CodeNotFound).
			WithDetail("type", p.typeName).
			WithDetail("category", category)
	}

	if allowRepeats {
		out := make([]Item, n)
		for i := range out {
			out[i] = pool[rng.Intn(len(pool))]
		}
		return out, nil
	}

	if n > len(pool) {
		return nil, kiinerrors.New(fmt.Sprintf("requested %d distinct items but %s pack has %d", n, p.typeName, len(pool))).
			WithCode(kiinerrors.CodeInsufficientItems).
			WithDetail("type", p.typeName).
			WithDetail("requested", n).
			WithDetail("available", len(pool))
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:n], nil
}
