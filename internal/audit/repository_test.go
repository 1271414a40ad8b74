package audit

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/enodebd/internal/infrastructure/database/databasetest"
)

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(databasetest.Open(t).DB)

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{Action: ActionReboot, EntityType: EntityEnodeb, EntityID: "120200002618AGP0003", UserID: "op-1", Source: SourceAPI, CreatedAt: base},
		{Action: ActionReboot, EntityType: EntityEnodeb, EntityID: "2006CW5000023", Source: SourceMQTT, CreatedAt: base.Add(time.Minute)},
		{Action: ActionExchange, EntityType: EntityEnodeb, EntityID: "2006CW5000023", UserID: "op-1", Source: SourceAPI,
			Details: map[string]any{"message": "Inform"}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if e.ID == "" {
			t.Fatal("ID not assigned")
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string // entity IDs newest first
	}{
		{"all", Filter{}, []string{"2006CW5000023", "2006CW5000023", "120200002618AGP0003"}},
		{"by action", Filter{Action: ActionReboot}, []string{"2006CW5000023", "120200002618AGP0003"}},
		{"by device", Filter{EntityID: "120200002618AGP0003"}, []string{"120200002618AGP0003"}},
		{"since", Filter{Since: base.Add(90 * time.Second)}, []string{"2006CW5000023"}},
		{"paged", Filter{Limit: 1, Offset: 1}, []string{"2006CW5000023"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(page.Entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(page.Entries), len(tt.want))
			}
			for i, e := range page.Entries {
				if e.EntityID != tt.want[i] {
					t.Errorf("entry %d = %s, want %s", i, e.EntityID, tt.want[i])
				}
			}
		})
	}

	page, _ := repo.List(ctx, Filter{Action: ActionExchange})
	if page.Entries[0].Details["message"] != "Inform" {
		t.Errorf("details = %v", page.Entries[0].Details)
	}
	if page.Total != 1 || page.Limit != 50 {
		t.Errorf("page meta = total %d limit %d", page.Total, page.Limit)
	}
}
