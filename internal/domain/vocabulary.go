package domain

import "strings"

// Category groups vocabulary items by register.
type Category string

// Known vocabulary categories.
const (
	CategoryGeneral      Category = "general"
	CategoryProfessional Category = "professional"
)

// VocabularyItem is a single word or phrase with its translation.
// Items are immutable once generated.
type VocabularyItem struct {
	ID          string   `json:"id"`
	Word        string   `json:"word"`
	Translation string   `json:"translation"`
	Example     string   `json:"example"`
	Category    Category `json:"category"`
	CommonError string   `json:"commonError,omitempty"`
}

// Validate checks that the item can be stored and rendered.
func (v *VocabularyItem) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return ErrEmptyVocabularyItemID
	}
	if strings.TrimSpace(v.Word) == "" || strings.TrimSpace(v.Translation) == "" {
		return ErrEmptyContent
	}
	switch v.Category {
	case CategoryGeneral, CategoryProfessional:
	default:
		return ErrInvalidCategory
	}
	return nil
}
