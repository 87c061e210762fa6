package view

import "fmt"

// ItemKind is the closed set of lesson unit types the platform serves.
// The token comes from the icon reference in the section's nav list.
type ItemKind int64

const (
	ITEM_VIDEO ItemKind = iota + 1
	ITEM_COMPLEMENTARY_INFORMATION
	ITEM_SETUP_EXPLANATION
	ITEM_SINGLE_CHOICE
	ITEM_DO_AFTER_ME
	ITEM_WHAT_WE_LEARNED
	ITEM_MULTIPLE_CHOICE
	ITEM_HQ_EXPLANATION
	ITEM_CHALLENGE
	ITEM_LINK_SUBMIT
	ITEM_PRACTICE_CLASS_CONTENT
	ITEM_TEXT_CONTENT
)

var kindTokens = map[string]ItemKind{
	"VIDEO":                     ITEM_VIDEO,
	"COMPLEMENTARY_INFORMATION": ITEM_COMPLEMENTARY_INFORMATION,
	"SETUP_EXPLANATION":         ITEM_SETUP_EXPLANATION,
	"SINGLE_CHOICE":             ITEM_SINGLE_CHOICE,
	"DO_AFTER_ME":               ITEM_DO_AFTER_ME,
	"WHAT_WE_LEARNED":           ITEM_WHAT_WE_LEARNED,
	"MULTIPLE_CHOICE":           ITEM_MULTIPLE_CHOICE,
	"HQ_EXPLANATION":            ITEM_HQ_EXPLANATION,
	"CHALLENGE":                 ITEM_CHALLENGE,
	"LINK_SUBMIT":               ITEM_LINK_SUBMIT,
	"PRACTICE_CLASS_CONTENT":    ITEM_PRACTICE_CLASS_CONTENT,
	"TEXT_CONTENT":              ITEM_TEXT_CONTENT,
}

var kindNames = func() map[ItemKind]string {
	names := make(map[ItemKind]string, len(kindTokens))
	for token, kind := range kindTokens {
		names[kind] = token
	}
	return names
}()

// KindFromToken resolves an icon token into a kind. New tokens the
// platform introduces fail loudly instead of being silently treated
// as documents.
func KindFromToken(token string) (ItemKind, error) {
	kind, ok := kindTokens[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", UnknownItemKind, token)
	}
	return kind, nil
}

func (k ItemKind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("ItemKind(%d)", int64(k))
	}
	return name
}

// IsQuestion reports whether the item carries an answerable choice
// form.
func (k ItemKind) IsQuestion() bool {
	switch k {
	case ITEM_SINGLE_CHOICE, ITEM_MULTIPLE_CHOICE, ITEM_PRACTICE_CLASS_CONTENT:
		return true
	}
	return false
}

// IsDocument reports whether the item is text-only.
func (k ItemKind) IsDocument() bool {
	switch k {
	case ITEM_COMPLEMENTARY_INFORMATION, ITEM_SETUP_EXPLANATION,
		ITEM_WHAT_WE_LEARNED, ITEM_HQ_EXPLANATION, ITEM_TEXT_CONTENT:
		return true
	}
	return false
}

func (k ItemKind) IsVideo() bool {
	return k == ITEM_VIDEO
}
