package availability

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// AvailabilityRecord is the canonical output unit of the pipeline, one
// row of the CSV artifact.
type AvailabilityRecord struct {
	// Date is kept exactly as the source provides it, not reformatted.
	Date                     string
	OfferingID               string
	InventoryOfferingHashKey string
	InvenOffrngLabel         string
	AvailableCount           int
}

// identityKey is the four-field tuple that determines a record's place
// in the ledger. AvailableCount is deliberately not part of it: the
// first occurrence of a key wins and later counts are discarded.
type identityKey struct {
	date       string
	offeringID string
	hashKey    string
	label      string
}

func (r AvailabilityRecord) key() identityKey {
	return identityKey{
		date:       r.Date,
		offeringID: r.OfferingID,
		hashKey:    r.InventoryOfferingHashKey,
		label:      r.InvenOffrngLabel,
	}
}

// RawPayload mirrors the availability-search response tree:
// resorts[] -> resortOfferings[] -> accomdationClasses[] ->
// calendarDays[] -> inventoryOfferings[].
type RawPayload struct {
	Resorts []Resort `json:"resorts"`
}

type Resort struct {
	HasAvailableUnits bool             `json:"hasAvailableUnits"`
	ResortOfferings   []ResortOffering `json:"resortOfferings"`
}

type ResortOffering struct {
	OfferingID    string `json:"offeringId"`
	OfferingLabel string `json:"offeringLabel"`
	// the key really is misspelled like this upstream
	AccommodationClasses []AccommodationClass `json:"accomdationClasses"`
}

type AccommodationClass struct {
	CalendarDays []CalendarDay `json:"calendarDays"`
}

type CalendarDay struct {
	Date               string              `json:"date"`
	Available          bool                `json:"available"`
	InventoryOfferings []InventoryOffering `json:"inventoryOfferings"`
}

type InventoryOffering struct {
	AvailableCount           FlexCount `json:"availableCount"`
	InventoryOfferingHashKey string    `json:"inventoryOfferingHashKey"`
	InvenOffrngLabel         string    `json:"invenOffrngLabel"`
}

// FlexCount is an integer that the source serializes either as a JSON
// number or as a string ("2"). A value that cannot be parsed as an
// integer leaves Valid false instead of failing the whole payload, so
// only the inventory entry carrying it is skipped.
type FlexCount struct {
	Value int
	Valid bool
}

func (c *FlexCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		c.Value = n
		c.Valid = true
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		// a float or some other non-integer representation
		return nil
	}
	c.Value = n
	c.Valid = true
	return nil
}

func (c FlexCount) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.Value)), nil
}

// Count is a convenience constructor for tests and in-process producers.
func Count(n int) FlexCount {
	return FlexCount{Value: n, Valid: true}
}
