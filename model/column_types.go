package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is stored as a JSON array in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

type Attachment struct {
	Name string `json:"name"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`
	Href string `json:"href"`
}

// Attachments is stored as a JSON array in a TEXT column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Attachment(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Attachments) Scan(src any) error {
	return scanJSON(src, (*[]Attachment)(a))
}

// Lots is a batch composition list stored as JSON.
type Lots []Lot

type Lot struct {
	Lot     string  `json:"lot"`
	Origin  string  `json:"origin,omitempty"`
	Article string  `json:"article,omitempty"`
	Kg      float64 `json:"kg"`
}

func (l Lots) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Lot(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Lots) Scan(src any) error {
	return scanJSON(src, (*[]Lot)(l))
}

// TotalKg sums the kg of every lot.
func (l Lots) TotalKg() float64 {
	var total float64
	for _, lot := range l {
		total += lot.Kg
	}
	return total
}

func scanJSON[T any](src any, dst *[]T) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*dst = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(raw) == 0 {
		*dst = nil
		return nil
	}
	return json.Unmarshal(raw, dst)
}
