package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Структура входного документа
	TaxMalformed Code = 1001

	// Кодирование
	EncOverflow     Code = 2001
	EncCapacityNear Code = 2002

	// Имена
	NameInvalidIdentifier  Code = 3001
	NameReservedIdentifier Code = 3002
	NameDuplicate          Code = 3003

	// Описания
	DescEmpty     Code = 4001
	DescMultiline Code = 4002
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	TaxMalformed:           "Malformed taxonomy",
	EncOverflow:            "Id exceeds its bit field",
	EncCapacityNear:        "Scope close to bit field capacity",
	NameInvalidIdentifier:  "Error name is not a valid C identifier",
	NameReservedIdentifier: "Error name is reserved in C",
	NameDuplicate:          "Error name declared in more than one scope",
	DescEmpty:              "Empty description",
	DescMultiline:          "Description spans several lines",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("TAX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("ENC%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("NAM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("DSC%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
