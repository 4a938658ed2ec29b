package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	records "agristack/internal/records/models"
)

func TestDecorate(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		rec  records.Record
		want SearchResult
	}{
		{
			name: "farmer",
			rec:  &records.Farmer{ID: id, FullName: "Ramesh Yadav", RegistrationID: "FRM-123456", Village: "Rampur"},
			want: SearchResult{ID: id, Type: TypeFarmer, Title: "Ramesh Yadav", Subtitle: "FRM-123456 • Rampur"},
		},
		{
			name: "farmer with missing fields",
			rec:  &records.Farmer{ID: id},
			want: SearchResult{ID: id, Type: TypeFarmer, Title: "Unknown", Subtitle: "No ID • Unknown"},
		},
		{
			name: "inspection",
			rec:  &records.Inspection{ID: id, LotNo: "L-7", FarmerName: "Ramesh", Crop: "Wheat", Variety: "HD-2967"},
			want: SearchResult{ID: id, Type: TypeInspection, Title: "Lot L-7 - Ramesh", Subtitle: "Wheat • HD-2967"},
		},
		{
			name: "inspection without variety",
			rec:  &records.Inspection{ID: id, LotNo: "L-7", FarmerName: "Ramesh", Crop: "Wheat"},
			want: SearchResult{ID: id, Type: TypeInspection, Title: "Lot L-7 - Ramesh", Subtitle: "Wheat • Unknown"},
		},
		{
			name: "outreach",
			rec:  &records.Outreach{ID: id, InspectorName: "S. Kumar", Village: "Rampur", District: "Patna"},
			want: SearchResult{ID: id, Type: TypeOutreach, Title: "S. Kumar", Subtitle: "Rampur, Patna"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decorate(tt.rec))
		})
	}
}

func TestSourcesCoverEveryCollectionInOrder(t *testing.T) {
	var got []records.Collection
	for _, src := range Sources {
		got = append(got, src.Collection)
		for _, f := range src.Fields {
			assert.True(t, records.HasColumn(src.Collection, f), "%s.%s", src.Collection, f)
		}
	}
	assert.Equal(t, records.Collections, got)
}
