package availability

import "strings"

const presidentialReserve = "Presidential Reserve"

// Extract walks a decoded availability-search payload and returns the
// records worth keeping. It never fails: malformed or filtered-out
// subtrees simply contribute nothing.
//
// Traversal rules, in order:
//  1. a payload without resorts yields nothing
//  2. resorts without available units are skipped
//  3. offerings labelled "Presidential Reserve" get the phrase appended
//     to their offeringId (unless it is already there)
//  4. calendar days not marked available are skipped
//  5. inventory entries with an unparseable availableCount are skipped
//     individually; under a Presidential Reserve offering the inventory
//     label gets a " (Presidential Reserve)" suffix if it lacks one
//  6. only entries with availableCount > 0 become records
func Extract(payload RawPayload) []AvailabilityRecord {
	var records []AvailabilityRecord

	for _, resort := range payload.Resorts {
		if !resort.HasAvailableUnits {
			continue
		}

		for _, offering := range resort.ResortOfferings {
			isPresidential := strings.Contains(offering.OfferingLabel, presidentialReserve)

			offeringID := offering.OfferingID
			if isPresidential && !strings.Contains(offeringID, presidentialReserve) {
				offeringID = offeringID + " " + presidentialReserve
			}

			for _, class := range offering.AccommodationClasses {
				for _, day := range class.CalendarDays {
					if !day.Available {
						continue
					}

					for _, inventory := range day.InventoryOfferings {
						if !inventory.AvailableCount.Valid {
							continue
						}
						if inventory.AvailableCount.Value <= 0 {
							continue
						}

						label := inventory.InvenOffrngLabel
						if isPresidential && !strings.Contains(label, presidentialReserve) {
							label = label + " (" + presidentialReserve + ")"
						}

						records = append(records, AvailabilityRecord{
							Date:                     day.Date,
							OfferingID:               offeringID,
							InventoryOfferingHashKey: inventory.InventoryOfferingHashKey,
							InvenOffrngLabel:         label,
							AvailableCount:           inventory.AvailableCount.Value,
						})
					}
				}
			}
		}
	}

	return records
}
