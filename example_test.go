package lexigo_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/lexigo"
	"github.com/hupe1980/lexigo/blobstore"
)

type Article struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Example demonstrates adding documents and running a prefix search.
func Example() {
	ctx := context.Background()

	db, err := lexigo.Open[Article](lexigo.InMemory())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	for i, title := range []string{"The quick brown fox", "A quiet harbor", "Foxes and hounds"} {
		if _, err := db.AddDocument(ctx, Article{ID: i + 1, Title: title}); err != nil {
			log.Fatal(err)
		}
	}

	results, err := db.Search("qui fox").Limit(10).Execute(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range results {
		fmt.Println(r.Score, r.Document.Title)
	}
	// Output:
	// 2 The quick brown fox
	// 1 A quiet harbor
	// 1 Foxes and hounds
}

// Example_duplicate shows how a rejected write is reported.
func Example_duplicate() {
	ctx := context.Background()
	db := lexigo.New[Article]().MustBuild()
	defer db.Close()

	_, _ = db.AddDocument(ctx, Article{ID: 7, Title: "first"})
	_, err := db.AddDocument(ctx, Article{ID: 7, Title: "second"})

	var ie *lexigo.IngestError
	if errors.As(err, &ie) {
		fmt.Println(errors.Is(err, lexigo.ErrDuplicateExternalID), ie.State)
	}
	// Output: true fields-resolved
}

// Example_upsert replaces a document in place.
func Example_upsert() {
	ctx := context.Background()
	db := lexigo.New[Article]().MustBuild()
	defer db.Close()

	id1, _ := db.UpsertDocument(ctx, Article{ID: 1, Title: "draft"})
	id2, _ := db.UpsertDocument(ctx, Article{ID: 1, Title: "published"})

	got, _, _ := db.GetByExternalID(ctx, "1")
	fmt.Println(id1 == id2, got.Title)
	// Output: true published
}

// Example_backup copies a database to a blob store and restores it.
func Example_backup() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	db := lexigo.New[Article]().MustBuild()
	_, _ = db.AddDocument(ctx, Article{ID: 1, Title: "kept safe"})

	info, err := db.Backup(ctx, store)
	if err != nil {
		log.Fatal(err)
	}
	_ = db.Close()

	backups, _ := lexigo.ListBackups(ctx, store)
	fmt.Println(len(backups), backups[0].ID == info.ID, info.Stats.Documents)
	// Output: 1 true 1
}
