package db

import (
	"testing"
	"time"

	"vidstream/internal/mediaurl"
)

func TestListOrphanedSkipsReferencedBlobs(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)
	blobs := NewBlobRepository(database)

	// The avatar blob is referenced by the user's avatar URL; the
	// other one is dangling. The URL is built the way uploads build
	// it, so orphan matching follows the real URL shape.
	user, err := users.Create(CreateUserParams{
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice",
		PasswordHash: "hash",
		AvatarURL:    mediaurl.Blob("http://localhost:8080", "blb_avatar"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	created := time.Now().UTC().Add(-48 * time.Hour)
	for _, rec := range []BlobRecord{
		{ID: "blb_avatar", Kind: "avatar", StoragePath: "avatar/a", MimeType: "image/png", SizeBytes: 1, OriginalName: "a.png", OwnerID: &user.ID, CreatedAt: created},
		{ID: "blb_orphan", Kind: "avatar", StoragePath: "avatar/b", MimeType: "image/png", SizeBytes: 1, OriginalName: "b.png", CreatedAt: created},
	} {
		if err := blobs.Create(rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	orphans, err := blobs.ListOrphaned(time.Now().UTC().Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("ListOrphaned() error = %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("len(orphans) = %d, want 1", len(orphans))
	}
	if orphans[0].ID != "blb_orphan" {
		t.Fatalf("orphan ID = %q, want %q", orphans[0].ID, "blb_orphan")
	}
}

func TestListOrphanedHonorsCutoff(t *testing.T) {
	blobs := NewBlobRepository(openTestDB(t))

	if err := blobs.Create(BlobRecord{
		ID: "blb_fresh", Kind: "avatar", StoragePath: "avatar/f", MimeType: "image/png",
		SizeBytes: 1, OriginalName: "f.png", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	orphans, err := blobs.ListOrphaned(time.Now().UTC().Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("ListOrphaned() error = %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("len(orphans) = %d, want 0, fresh uploads are kept", len(orphans))
	}
}
