package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/RomirSinghla-Redweek/automation-wyndham/services/availability"

	"github.com/stretchr/testify/require"
)

func seedArtifact(t *testing.T, path string) *availability.Pipeline {
	t.Helper()

	pipeline, err := availability.NewPipeline(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	payload := availability.RawPayload{Resorts: []availability.Resort{{
		HasAvailableUnits: true,
		ResortOfferings: []availability.ResortOffering{
			{
				OfferingID:    "A1",
				OfferingLabel: "Ocean View",
				AccommodationClasses: []availability.AccommodationClass{{
					CalendarDays: []availability.CalendarDay{
						{
							Date:      "2025-06-01",
							Available: true,
							InventoryOfferings: []availability.InventoryOffering{
								{AvailableCount: availability.Count(2), InventoryOfferingHashKey: "h1", InvenOffrngLabel: "King Suite"},
								{AvailableCount: availability.Count(3), InventoryOfferingHashKey: "h2", InvenOffrngLabel: "Queen Suite"},
							},
						},
						{
							Date:      "2025-06-03",
							Available: true,
							InventoryOfferings: []availability.InventoryOffering{
								{AvailableCount: availability.Count(1), InventoryOfferingHashKey: "h3", InvenOffrngLabel: "King Suite"},
							},
						},
					},
				}},
			},
			{
				OfferingID:    "WYN9",
				OfferingLabel: "Presidential Reserve Tower",
				AccommodationClasses: []availability.AccommodationClass{{
					CalendarDays: []availability.CalendarDay{{
						Date:      "2025-06-02",
						Available: true,
						InventoryOfferings: []availability.InventoryOffering{
							{AvailableCount: availability.Count(4), InventoryOfferingHashKey: "h4", InvenOffrngLabel: "Penthouse"},
						},
					}},
				}},
			},
		},
	}}}

	_, err = pipeline.Ingest(ctx, payload, "stats fixture")
	if err != nil {
		t.Fatal(err)
	}
	return pipeline
}

func TestReaderAggregates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.csv")
	seedArtifact(t, path)

	reader := NewReader(path)
	s, err := reader.Read()
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 4, s.TotalRows)
	require.Equal(t, 4, s.NewRows)
	require.Equal(t, 3, s.UniqueDates)
	require.Equal(t, 2, s.UniqueOfferings)
	require.Equal(t, "2025-06-01", s.EarliestDate)
	require.Equal(t, "2025-06-03", s.LatestDate)
	require.Equal(t, 10, s.TotalUnits)
	require.Equal(t, 5, s.UnitsByDate["2025-06-01"])
	require.Equal(t, 6, s.UnitsByOffering["A1"])
	require.Equal(t, 4, s.UnitsByOffering["WYN9 Presidential Reserve"])
	require.Equal(t, 2, s.RoomTypes["King Suite"])
	require.Equal(t, 1, s.RoomTypes["Penthouse (Presidential Reserve)"])
	require.Equal(t, 1, s.PresidentialRows)
	require.Greater(t, s.FileSize, int64(0))
}

func TestReaderIncrementalReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.csv")
	pipeline := seedArtifact(t, path)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	reader := NewReader(path)
	_, err := reader.Read()
	if err != nil {
		t.Fatal(err)
	}

	{
		// nothing changed, no re-read
		_, read, err := reader.ReadIfChanged()
		require.NoError(t, err)
		require.False(t, read)
	}
	{
		// append one more record, the reader notices growth
		_, err := pipeline.Ingest(ctx, availability.RawPayload{Resorts: []availability.Resort{{
			HasAvailableUnits: true,
			ResortOfferings: []availability.ResortOffering{{
				OfferingID: "B7",
				AccommodationClasses: []availability.AccommodationClass{{
					CalendarDays: []availability.CalendarDay{{
						Date:      "2025-07-01",
						Available: true,
						InventoryOfferings: []availability.InventoryOffering{
							{AvailableCount: availability.Count(2), InventoryOfferingHashKey: "h9", InvenOffrngLabel: "Studio"},
						},
					}},
				}},
			}},
		}}}, "growth")
		require.NoError(t, err)

		s, read, err := reader.ReadIfChanged()
		require.NoError(t, err)
		require.True(t, read)
		require.Equal(t, 5, s.TotalRows)
		require.Equal(t, 1, s.NewRows)
	}
	{
		// a regenerate between reads is tolerated
		err := pipeline.Regenerate(ctx)
		require.NoError(t, err)

		s, err := reader.Read()
		require.NoError(t, err)
		require.Equal(t, 5, s.TotalRows)
	}
}
