// Package share exports notes as vCards.
package share

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/emersion/go-vcard"

	"phonebook/internal/models"
)

var contactURLPattern = regexp.MustCompile(`^/contact/(\d+)(?:\.vcf)?$`)

// ExtractNoteID extracts the note id from a path like /contact/12.vcf.
func ExtractNoteID(path string) (int64, bool) {
	matches := contactURLPattern.FindStringSubmatch(path)
	if len(matches) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Card builds the vCard for a note. The tag becomes a category and picks
// the phone number type.
func Card(n models.Note) vcard.Card {
	card := make(vcard.Card)
	card.SetValue(vcard.FieldVersion, "3.0")
	card.SetValue(vcard.FieldFormattedName, n.Name)
	card.SetName(&vcard.Name{FamilyName: n.Name})

	if n.PhoneNumber != "" {
		card.Add(vcard.FieldTelephone, &vcard.Field{
			Value:  n.PhoneNumber,
			Params: vcard.Params{vcard.ParamType: {phoneType(n.Tag)}},
		})
	}
	if n.Tag.Name != "" {
		card.SetCategories([]string{n.Tag.Name})
	}
	if id, ok := n.ID.Value(); ok {
		card.SetValue(vcard.FieldUID, "phonebook-"+strconv.FormatInt(id, 10))
	}
	return card
}

// Encode writes the note's vCard to w.
func Encode(w io.Writer, n models.Note) error {
	return vcard.NewEncoder(w).Encode(Card(n))
}

// FileName returns a download name for the note's vCard.
func FileName(n models.Note) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, n.Name)
	if clean == "" {
		clean = "contact"
	}
	return clean + ".vcf"
}

func phoneType(t models.Tag) string {
	switch strings.ToLower(t.Name) {
	case "home":
		return vcard.TypeHome
	case "work", "university":
		return vcard.TypeWork
	default:
		return vcard.TypeCell
	}
}
