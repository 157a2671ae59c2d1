package benchmark_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/lexigo"
	"github.com/hupe1980/lexigo/testutil"
)

func BenchmarkIngest_NoSync(b *testing.B) {
	benchmarkIngest(b, false, lexigo.CompressionNone)
}

func BenchmarkIngest_Sync(b *testing.B) {
	benchmarkIngest(b, true, lexigo.CompressionNone)
}

func BenchmarkIngest_LZ4(b *testing.B) {
	benchmarkIngest(b, false, lexigo.CompressionLZ4)
}

func BenchmarkIngest_Zstd(b *testing.B) {
	benchmarkIngest(b, false, lexigo.CompressionZstd)
}

func benchmarkIngest(b *testing.B, syncWrites bool, comp lexigo.Compression) {
	b.ReportAllocs()

	db, err := lexigo.Open[testutil.Article](lexigo.Local(b.TempDir()),
		lexigo.WithSyncWrites(syncWrites),
		lexigo.WithCompression(comp),
	)
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	docs := testutil.NewRNG(1).Articles(1024, 40)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a := docs[i%len(docs)]
		a.ID = i
		if _, err := db.AddDocument(ctx, a); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIngest_Parallel(b *testing.B) {
	b.ReportAllocs()

	db, err := lexigo.Open[testutil.Article](lexigo.Local(b.TempDir()))
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	docs := testutil.NewRNG(1).Articles(1024, 40)
	ctx := context.Background()
	var next atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := int(next.Add(1))
			a := docs[i%len(docs)]
			a.ID = i
			if _, err := db.AddDocument(ctx, a); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func loadedDB(b *testing.B, n int) *lexigo.Lexigo[testutil.Article] {
	b.Helper()
	db, err := lexigo.Open[testutil.Article](lexigo.InMemory(), lexigo.WithMaxLimit(1000))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = db.Close() })

	if err := db.AddDocuments(context.Background(), testutil.NewRNG(2).Articles(n, 40)).Err(); err != nil {
		b.Fatal(err)
	}
	return db
}

func BenchmarkSearch(b *testing.B) {
	db := loadedDB(b, 10_000)
	ctx := context.Background()

	for _, bc := range []struct {
		name  string
		query string
		limit int
	}{
		{"SingleToken", "glacier", 10},
		{"ShortPrefix", "qu", 10},
		{"MultiToken", "quick fox harbor", 10},
		{"MultiToken_Limit100", "quick fox harbor", 100},
	} {
		b.Run(bc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := db.Search(bc.query).Limit(bc.limit).Execute(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSearch_Parallel(b *testing.B) {
	db := loadedDB(b, 10_000)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := db.Search("ca de").Execute(ctx); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkGetByExternalID(b *testing.B) {
	const n = 10_000
	db := loadedDB(b, n)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok, err := db.GetByExternalID(ctx, i%n+1); err != nil || !ok {
			b.Fatal(ok, err)
		}
	}
}
