package http

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/theory/jsonpath"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
)

// Mapping adapts a feed that does not speak the native layout. Items
// selects the drink nodes within the document; the remaining paths are
// evaluated against each node. Items, ID, and Name are required, the
// rest default to empty when omitted.
//
// Paths use RFC 9535 JSONPath, e.g.:
//
//	{"items": "$.products[*]", "id": "$.sku", "abv": "$.strength"}
type Mapping struct {
	Items           string `json:"items"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category,omitempty"`
	Style           string `json:"style,omitempty"`
	ABV             string `json:"abv,omitempty"`
	Brewery         string `json:"brewery,omitempty"`
	BreweryLocation string `json:"brewery_location,omitempty"`
	Availability    string `json:"availability,omitempty"`
	Rating          string `json:"rating,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type compiledMapping struct {
	items  *jsonpath.Path
	fields map[string]*jsonpath.Path
}

func compileMapping(m Mapping) (*compiledMapping, error) {
	if m.Items == "" || m.ID == "" || m.Name == "" {
		return nil, fmt.Errorf("mapping requires items, id, and name paths")
	}

	items, err := jsonpath.Parse(m.Items)
	if err != nil {
		return nil, fmt.Errorf("compile items path: %w", err)
	}

	cm := &compiledMapping{items: items, fields: make(map[string]*jsonpath.Path)}
	for name, expr := range map[string]string{
		"id":               m.ID,
		"name":             m.Name,
		"category":         m.Category,
		"style":            m.Style,
		"abv":              m.ABV,
		"brewery":          m.Brewery,
		"brewery_location": m.BreweryLocation,
		"availability":     m.Availability,
		"rating":           m.Rating,
		"notes":            m.Notes,
	} {
		if expr == "" {
			continue
		}
		p, err := jsonpath.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s path: %w", name, err)
		}
		cm.fields[name] = p
	}
	return cm, nil
}

// drinks evaluates the mapping against a decoded feed document.
func (cm *compiledMapping) drinks(data []byte) ([]catalog.Drink, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode feed document: %w", err)
	}

	nodes := cm.items.Select(doc)
	out := make([]catalog.Drink, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, catalog.Drink{
			ID:              cm.str(node, "id"),
			Name:            cm.str(node, "name"),
			Category:        cm.str(node, "category"),
			Style:           cm.str(node, "style"),
			ABV:             cm.num(node, "abv"),
			Brewery:         cm.str(node, "brewery"),
			BreweryLocation: cm.str(node, "brewery_location"),
			Availability:    catalog.ParseAvailability(cm.str(node, "availability")),
			Rating:          int(cm.num(node, "rating")),
			Notes:           cm.str(node, "notes"),
		})
	}
	return out, nil
}

// str evaluates a field path against one item node and coerces the
// first result to a string. Feeds disagree on whether ABV is "5.2",
// 5.2, or missing, so coercion is deliberately forgiving.
func (cm *compiledMapping) str(node any, field string) string {
	p, ok := cm.fields[field]
	if !ok {
		return ""
	}
	nodes := p.Select(node)
	if len(nodes) == 0 {
		return ""
	}
	switch v := nodes[0].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (cm *compiledMapping) num(node any, field string) float64 {
	p, ok := cm.fields[field]
	if !ok {
		return 0
	}
	nodes := p.Select(node)
	if len(nodes) == 0 {
		return 0
	}
	switch v := nodes[0].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
