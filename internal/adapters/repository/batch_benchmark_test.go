package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
)

// syntheticBatch builds a wire batch of users posting postsPerUser each.
func syntheticBatch(users, postsPerUser int) model.Batch {
	rng := rand.New(rand.NewSource(1))
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	in := model.Batch{BatchID: "bench", Users: make([]model.UserInput, users)}
	for u := range in.Users {
		posts := make([]model.PostInput, postsPerUser)
		for p := range posts {
			ts := base.Add(time.Duration(rng.Intn(7*24*60)) * time.Minute)
			posts[p] = model.PostInput{
				Content:   fmt.Sprintf("post %d from user %d", p, u),
				Timestamp: ts.Format(time.RFC3339),
				Hashtags:  []string{"bench"},
			}
		}
		in.Users[u] = model.UserInput{
			UserID:  fmt.Sprintf("user-%d", u),
			Profile: model.ProfileInput{FollowerCount: rng.Intn(1000), AccountAgeDays: 1 + rng.Intn(3000)},
			Posts:   posts,
		}
	}
	return in
}

func BenchmarkFromInput(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		in := syntheticBatch(size, 10)
		b.Run(fmt.Sprintf("users=%d", size), func(b *testing.B) {
			ctx := context.Background()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := FromInput(ctx, in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkBatch_Snapshot(b *testing.B) {
	ctx := context.Background()
	store, err := FromInput(ctx, syntheticBatch(1000, 10))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Snapshot(ctx)
	}
}

func BenchmarkLRUResultStore_SaveGet(b *testing.B) {
	ctx := context.Background()
	store, err := NewLRUResultStore(10_000)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			id := fmt.Sprintf("b-%d", i%20_000)
			_ = store.Save(ctx, types.Report{BatchID: id})
			_, _ = store.Get(ctx, id)
			i++
		}
	})
}
