package voices

import (
	"fmt"
	"sort"
)

const (
	// CategoryPremade - voices provided by the synthesis service
	CategoryPremade = "premade"
	// CategoryCloned - voices cloned from user samples
	CategoryCloned = "cloned"
	// CategoryGenerated - voices designed from a description
	CategoryGenerated = "generated"
)

// Voice is a synthesis voice description
type Voice struct {
	ID         string            `json:"voiceId"`
	Name       string            `json:"name"`
	Category   string            `json:"category"`
	Labels     map[string]string `json:"labels,omitempty"`
	PreviewURL string            `json:"previewUrl,omitempty"`
}

// Catalog is a read only voice list
type Catalog struct {
	voices []*Voice
	byID   map[string]*Voice
}

// NewCatalog creates catalog, IDs must be unique
func NewCatalog(voices []*Voice) (*Catalog, error) {
	res := &Catalog{byID: make(map[string]*Voice, len(voices))}
	for _, v := range voices {
		if v.ID == "" {
			return nil, fmt.Errorf("no voice id for '%s'", v.Name)
		}
		if _, ok := res.byID[v.ID]; ok {
			return nil, fmt.Errorf("duplicate voice id '%s'", v.ID)
		}
		if v.Category == "" {
			v.Category = CategoryPremade
		}
		res.byID[v.ID] = v
		res.voices = append(res.voices, v)
	}
	return res, nil
}

// Default returns the built in voice list
func Default() *Catalog {
	res, err := NewCatalog([]*Voice{
		{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Labels: map[string]string{"gender": "female", "accent": "american"}},
		{ID: "AZnzlk1XvdvUeBnXmlld", Name: "Domi", Labels: map[string]string{"gender": "female", "accent": "american"}},
		{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Bella", Labels: map[string]string{"gender": "female", "accent": "american"}},
		{ID: "ErXwobaYiN019PkySvjV", Name: "Antoni", Labels: map[string]string{"gender": "male", "accent": "american"}},
		{ID: "MF3mGyEYCl7XYWbV9V6O", Name: "Elli", Labels: map[string]string{"gender": "female", "accent": "american"}},
		{ID: "TxGEqnHWrfWFTfGW9XjX", Name: "Josh", Labels: map[string]string{"gender": "male", "accent": "american"}},
		{ID: "VR6AewLTigWG4xSOukaG", Name: "Arnold", Labels: map[string]string{"gender": "male", "accent": "american"}},
		{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Labels: map[string]string{"gender": "male", "accent": "american"}},
		{ID: "yoZ06aMxZJJ28mfd3POQ", Name: "Sam", Labels: map[string]string{"gender": "male", "accent": "american"}},
	})
	if err != nil {
		panic(err)
	}
	return res
}

// Name returns voice name, empty for an unknown voice
func (c *Catalog) Name(id string) string {
	if v, ok := c.byID[id]; ok {
		return v.Name
	}
	return ""
}

// Get returns voice by ID
func (c *Catalog) Get(id string) (*Voice, bool) {
	v, ok := c.byID[id]
	return v, ok
}

// List returns voices of the category, all voices for an empty category
func (c *Catalog) List(category string) []*Voice {
	res := []*Voice{}
	for _, v := range c.voices {
		if category == "" || v.Category == category {
			res = append(res, v)
		}
	}
	return res
}

// Categories returns known categories
func (c *Catalog) Categories() []string {
	res := []string{CategoryPremade, CategoryCloned, CategoryGenerated}
	known := map[string]bool{CategoryPremade: true, CategoryCloned: true, CategoryGenerated: true}
	extra := []string{}
	for _, v := range c.voices {
		if !known[v.Category] {
			known[v.Category] = true
			extra = append(extra, v.Category)
		}
	}
	sort.Strings(extra)
	return append(res, extra...)
}
