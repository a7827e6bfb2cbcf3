package repository

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/relaxflow/core/internal/domain/entities"
)

func TestFileCollection_MissingFileIsInitialised(t *testing.T) {
	dir := t.TempDir()
	users := NewFileCollection[entities.User](dir, entities.CollectionUsers)

	records, err := users.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty collection, got %d records", len(records))
	}

	data, err := os.ReadFile(filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatalf("Expected users.json to be created: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Expected empty array on disk, got %q", string(data))
	}
}

func TestFileCollection_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	plays := NewFileCollection[entities.DailyPlay](dir, entities.CollectionDailyPlay)
	ctx := context.Background()

	want := []entities.DailyPlay{{Date: "2024-03-02", Plays: 4}, {Date: "2024-03-01", Plays: 1}}
	if err := plays.WriteAll(ctx, want); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, "daily-play.json"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := plays.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// Writing back what was read must not change the file.
	if err := plays.WriteAll(ctx, got); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "daily-play.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("Expected identical bytes after round trip\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestFileCollection_MeditationsFileName(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCollection[entities.Meditation](dir, entities.CollectionMeditations)

	if _, err := c.ReadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "music-meditations.json")); err != nil {
		t.Errorf("Expected music-meditations.json to exist: %v", err)
	}
}

func TestFileCollection_CorruptFileIsNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "owners.json")
	corrupt := []byte(`[{"id": "1",`)
	if err := os.WriteFile(path, corrupt, 0o644); err != nil {
		t.Fatal(err)
	}

	owners := NewFileCollection[entities.Owner](dir, entities.CollectionOwners)
	_, err := owners.ReadAll(context.Background())
	if !entities.IsStorage(err) {
		t.Fatalf("Expected storage error, got %v", err)
	}

	err = owners.Update(context.Background(), func(records []entities.Owner) ([]entities.Owner, error) {
		t.Error("Update callback must not run for an undecodable file")
		return records, nil
	})
	if !entities.IsStorage(err) {
		t.Errorf("Expected storage error from Update, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if !bytes.Equal(data, corrupt) {
		t.Errorf("Expected corrupt file to be left alone, got %q", data)
	}
}

func TestFileCollection_UpdateErrorLeavesFileUnchanged(t *testing.T) {
	dir := t.TempDir()
	users := NewFileCollection[entities.User](dir, entities.CollectionUsers)
	ctx := context.Background()

	if err := users.WriteAll(ctx, []entities.User{{ID: "1", Name: "Ada"}}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "users.json")
	before, _ := os.ReadFile(path)

	err := users.Update(ctx, func(records []entities.User) ([]entities.User, error) {
		return nil, entities.ErrUserNotFound
	})
	if !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Errorf("Expected file to be unchanged, got %s", after)
	}
}

func TestFileCollection_ConcurrentUpdatesAreSerialised(t *testing.T) {
	dir := t.TempDir()
	plays := NewFileCollection[entities.DailyPlay](dir, entities.CollectionDailyPlay)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := plays.Update(ctx, func(records []entities.DailyPlay) ([]entities.DailyPlay, error) {
				if len(records) == 0 {
					return []entities.DailyPlay{{Date: "2024-01-01", Plays: 1}}, nil
				}
				records[0].Plays++
				return records, nil
			})
			if err != nil {
				t.Errorf("Update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	records, err := plays.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Plays != workers {
		t.Errorf("Expected one record with %d plays, got %v", workers, records)
	}
}

func TestFileCollection_FirstReadDoesNotClobberFirstUpdate(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 200; round++ {
		dir := t.TempDir()
		plays := NewFileCollection[entities.DailyPlay](dir, entities.CollectionDailyPlay)

		var wg sync.WaitGroup
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			if _, err := plays.ReadAll(ctx); err != nil {
				t.Errorf("ReadAll failed: %v", err)
			}
		}()
		var updateErr error
		go func() {
			defer wg.Done()
			<-start
			updateErr = plays.Update(ctx, func(records []entities.DailyPlay) ([]entities.DailyPlay, error) {
				return append(records, entities.DailyPlay{Date: "2024-03-01", Plays: 1}), nil
			})
		}()
		close(start)
		wg.Wait()

		if updateErr != nil {
			t.Fatalf("Update failed: %v", updateErr)
		}
		records, err := plays.ReadAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			data, _ := os.ReadFile(filepath.Join(dir, "daily-play.json"))
			t.Fatalf("Round %d: expected the updated record to survive, file holds %q", round, data)
		}
	}
}

func TestFileCollection_DashboardFilesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		load func(dir string) error
	}{
		{
			name: "meditation with millisecond timestamps",
			file: "music-meditations.json",
			data: `[
  {
    "id": "1",
    "title": "Calm Ocean Waves",
    "duration": "15-30",
    "durationMinutes": 20,
    "category": "relaxation",
    "artist": "Nature Sound",
    "description": "Waves & wind <live>",
    "thumbnail": "/images/ocean.jpg",
    "audioUrl": "/audio/ocean.mp3",
    "createdAt": "2024-05-01T10:00:00.000Z",
    "updatedAt": "2024-05-02T08:30:15.123Z"
  }
]`,
			load: roundTrip[entities.Meditation](entities.CollectionMeditations),
		},
		{
			name: "seed product without timestamps",
			file: "products.json",
			data: `[
  {
    "id": "1",
    "name": "RelaxFlow Sound Bowl Pro",
    "deviceId": "RFB-001",
    "description": "Premium sound therapy bowl with advanced vibration technology",
    "price": 299.99,
    "stockQuantity": 25,
    "status": "Available",
    "category": "therapy",
    "image": "/placeholder.svg?height=60&width=60",
    "isActive": true
  }
]`,
			load: roundTrip[entities.Product](entities.CollectionProducts),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}

			if err := tt.load(dir); err != nil {
				t.Fatalf("Round trip failed: %v", err)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.data {
				t.Errorf("Expected file unchanged\nwant: %s\ngot:  %s", tt.data, got)
			}
		})
	}
}

func roundTrip[T any](name string) func(dir string) error {
	return func(dir string) error {
		c := NewFileCollection[T](dir, name)
		records, err := c.ReadAll(context.Background())
		if err != nil {
			return err
		}
		return c.WriteAll(context.Background(), records)
	}
}

func TestFileCollection_EmptyTimestampIsTolerated(t *testing.T) {
	dir := t.TempDir()
	data := `[{"id": "1", "firstName": "Ada", "createdAt": "", "locations": []}]`
	if err := os.WriteFile(filepath.Join(dir, "owners.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	owners := NewFileCollection[entities.Owner](dir, entities.CollectionOwners)
	records, err := owners.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 1 || records[0].CreatedAt != "" {
		t.Errorf("Expected one owner without createdAt, got %+v", records)
	}
	if _, ok := records[0].CreatedAt.Time(); ok {
		t.Error("Expected empty createdAt not to parse")
	}
}

func TestFileCollection_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	users := NewFileCollection[entities.User](t.TempDir(), entities.CollectionUsers)
	if _, err := users.ReadAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
