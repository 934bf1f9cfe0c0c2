package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidProductID = errors.New("product id must be a JSON string or number")

// ProductID holds the identifier exactly as the product service sent it.
// Numbers keep their literal text, strings are unquoted.
type ProductID string

func (id ProductID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both string and numeric ids.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidProductID
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = ProductID(n.String())
		return nil
	}

	return ErrInvalidProductID
}

// MarshalJSON writes numeric-looking ids back as numbers.
func (id ProductID) MarshalJSON() ([]byte, error) {
	var n json.Number
	if err := json.Unmarshal([]byte(id), &n); err == nil && n.String() == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type Product struct {
	ID   ProductID `json:"id"`
	Name string    `json:"name"`
}

// Deletion is one journal entry for a delete attempt.
type Deletion struct {
	ProductID   ProductID
	ProductName string
	Success     bool
	StatusCode  int
	Reason      string
	DeletedAt   time.Time
}

// Report summarises a single pruning run.
type Report struct {
	Fetched int `json:"fetched"`
	Matched int `json:"matched"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}
