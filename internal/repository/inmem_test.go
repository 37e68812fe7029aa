package repository

import (
	"testing"

	"github.com/plune/chzzk-clip/internal/models"
)

func TestCatalogRepository_AddGet(t *testing.T) {
	repo, err := NewCatalogRepository()
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := repo.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	meta := &models.VideoMetadata{VideoNo: "777", Title: "cached"}
	repo.Add("k", meta)

	got, ok := repo.Get("k")
	if !ok {
		t.Fatal("expected hit after Add")
	}
	if got != meta {
		t.Fatalf("got %+v, want the stored pointer", got)
	}
}

func TestCatalogRepository_Overwrite(t *testing.T) {
	repo, err := NewCatalogRepository()
	if err != nil {
		t.Fatal(err)
	}

	repo.Add("k", &models.VideoMetadata{Title: "old"})
	repo.Add("k", &models.VideoMetadata{Title: "new"})

	got, ok := repo.Get("k")
	if !ok || got.Title != "new" {
		t.Fatalf("got %+v, want overwritten entry", got)
	}
}
