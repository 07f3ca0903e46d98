package availability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func payloadWith(resorts ...Resort) RawPayload {
	return RawPayload{Resorts: resorts}
}

func TestExtractEmptyPayload(t *testing.T) {
	require.Empty(t, Extract(RawPayload{}))
	require.Empty(t, Extract(payloadWith()))
}

func TestExtractFilters(t *testing.T) {
	{
		// resort without available units contributes nothing
		records := Extract(payloadWith(Resort{
			HasAvailableUnits: false,
			ResortOfferings: []ResortOffering{{
				OfferingID: "A1",
				AccommodationClasses: []AccommodationClass{{
					CalendarDays: []CalendarDay{{
						Date:      "2025-06-01",
						Available: true,
						InventoryOfferings: []InventoryOffering{
							{AvailableCount: Count(3), InvenOffrngLabel: "King Suite"},
						},
					}},
				}},
			}},
		}))
		require.Empty(t, records)
	}
	{
		// a day not marked available contributes nothing
		records := Extract(payloadWith(Resort{
			HasAvailableUnits: true,
			ResortOfferings: []ResortOffering{{
				OfferingID: "A1",
				AccommodationClasses: []AccommodationClass{{
					CalendarDays: []CalendarDay{{
						Date:      "2025-06-01",
						Available: false,
						InventoryOfferings: []InventoryOffering{
							{AvailableCount: Count(3), InvenOffrngLabel: "King Suite"},
						},
					}},
				}},
			}},
		}))
		require.Empty(t, records)
	}
	{
		// zero and invalid counts are dropped
		records := Extract(payloadWith(Resort{
			HasAvailableUnits: true,
			ResortOfferings: []ResortOffering{{
				OfferingID: "A1",
				AccommodationClasses: []AccommodationClass{{
					CalendarDays: []CalendarDay{{
						Date:      "2025-06-01",
						Available: true,
						InventoryOfferings: []InventoryOffering{
							{AvailableCount: Count(0), InvenOffrngLabel: "Zero"},
							{AvailableCount: FlexCount{}, InvenOffrngLabel: "Unparseable"},
						},
					}},
				}},
			}},
		}))
		require.Empty(t, records)
	}
}

func TestExtractMalformedCountSkipsOnlyThatEntry(t *testing.T) {
	records := Extract(payloadWith(Resort{
		HasAvailableUnits: true,
		ResortOfferings: []ResortOffering{{
			OfferingID: "A1",
			AccommodationClasses: []AccommodationClass{{
				CalendarDays: []CalendarDay{{
					Date:      "2025-06-01",
					Available: true,
					InventoryOfferings: []InventoryOffering{
						{AvailableCount: FlexCount{}, InvenOffrngLabel: "Broken"},
						{AvailableCount: Count(2), InvenOffrngLabel: "King Suite", InventoryOfferingHashKey: "h1"},
					},
				}},
			}},
		}},
	}))
	require.Len(t, records, 1)
	require.Equal(t, "King Suite", records[0].InvenOffrngLabel)
	require.Equal(t, 2, records[0].AvailableCount)
}

func TestExtractPresidentialReserve(t *testing.T) {
	payload := payloadWith(Resort{
		HasAvailableUnits: true,
		ResortOfferings: []ResortOffering{{
			OfferingID:    "WYN123",
			OfferingLabel: "Presidential Reserve Suite",
			AccommodationClasses: []AccommodationClass{{
				CalendarDays: []CalendarDay{{
					Date:      "2025-06-01",
					Available: true,
					InventoryOfferings: []InventoryOffering{
						{AvailableCount: Count(1), InvenOffrngLabel: "King Suite"},
						{AvailableCount: Count(1), InvenOffrngLabel: "Presidential Reserve Penthouse"},
					},
				}},
			}},
		}},
	})

	records := Extract(payload)
	require.Len(t, records, 2)
	require.Equal(t, "WYN123 Presidential Reserve", records[0].OfferingID)
	require.Equal(t, "King Suite (Presidential Reserve)", records[0].InvenOffrngLabel)
	// an inventory label that already carries the phrase is untouched
	require.Equal(t, "Presidential Reserve Penthouse", records[1].InvenOffrngLabel)
}

func TestExtractPresidentialReserveIdAlreadyTagged(t *testing.T) {
	records := Extract(payloadWith(Resort{
		HasAvailableUnits: true,
		ResortOfferings: []ResortOffering{{
			OfferingID:    "WYN123 Presidential Reserve",
			OfferingLabel: "Presidential Reserve Suite",
			AccommodationClasses: []AccommodationClass{{
				CalendarDays: []CalendarDay{{
					Date:      "2025-06-01",
					Available: true,
					InventoryOfferings: []InventoryOffering{
						{AvailableCount: Count(1), InvenOffrngLabel: "King Suite"},
					},
				}},
			}},
		}},
	}))
	require.Len(t, records, 1)
	require.Equal(t, "WYN123 Presidential Reserve", records[0].OfferingID)
}

func TestExtractEndToEndScenario(t *testing.T) {
	records := Extract(payloadWith(Resort{
		HasAvailableUnits: true,
		ResortOfferings: []ResortOffering{{
			OfferingID:    "A1",
			OfferingLabel: "Ocean View",
			AccommodationClasses: []AccommodationClass{{
				CalendarDays: []CalendarDay{{
					Date:      "2025-06-01",
					Available: true,
					InventoryOfferings: []InventoryOffering{
						{AvailableCount: Count(2), InventoryOfferingHashKey: "h1", InvenOffrngLabel: "1 Bedroom Deluxe"},
						{AvailableCount: Count(0), InventoryOfferingHashKey: "h2", InvenOffrngLabel: "2 Bedroom Deluxe"},
					},
				}},
			}},
		}},
	}))

	require.Equal(t, []AvailabilityRecord{{
		Date:                     "2025-06-01",
		OfferingID:               "A1",
		InventoryOfferingHashKey: "h1",
		InvenOffrngLabel:         "1 Bedroom Deluxe",
		AvailableCount:           2,
	}}, records)
}
