/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cio

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreSetThenGetDraft(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	key := MustParse("storage/one").Key()

	created, err := m.Set(ctx, &StoredNode{Key: key, Content: NewContent("draft-content"), Version: VersionDraft})
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true for a new row")
	}

	row, ok, err := m.Get(ctx, key, VersionDraft)
	if err != nil || !ok {
		t.Fatalf("expected draft hit, got ok=%v err=%v", ok, err)
	}
	if *row.Content != "draft-content" {
		t.Fatalf("expected draft-content, got %v", *row.Content)
	}
}

func TestMemStoreGetPublishedBeforeAnyPublishIsMiss(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	key := MustParse("storage/two").Key()
	m.Set(ctx, &StoredNode{Key: key, Content: NewContent("x"), Version: VersionDraft})

	_, ok, err := m.Get(ctx, key, VersionPublished)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected no published row before any Publish call")
	}
}

func TestMemStorePublishPromotesDraftToVersionOne(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	key := MustParse("storage/three").Key()
	m.Set(ctx, &StoredNode{Key: key, Content: NewContent("x"), Version: VersionDraft})

	published, err := m.Publish(ctx, key, VersionDraft)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if published.Version != 1 || !published.IsPublished {
		t.Fatalf("expected version 1 published, got %+v", published)
	}

	row, ok, err := m.Get(ctx, key, VersionPublished)
	if err != nil || !ok {
		t.Fatalf("expected published hit, got ok=%v err=%v", ok, err)
	}
	if row.Version != 1 {
		t.Fatalf("expected published version 1, got %d", row.Version)
	}
}

func TestMemStorePublishUnpublishesSiblings(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	key := MustParse("storage/four").Key()

	m.Set(ctx, &StoredNode{Key: key, Content: NewContent("v1"), Version: VersionDraft})
	m.Publish(ctx, key, VersionDraft)

	m.Set(ctx, &StoredNode{Key: key, Content: NewContent("v2"), Version: VersionDraft})
	m.Publish(ctx, key, VersionDraft)

	rows, err := m.GetRevisions(ctx, key)
	if err != nil {
		t.Fatalf("GetRevisions returned error: %v", err)
	}
	published := 0
	for _, r := range rows {
		if r.IsPublished {
			published++
		}
	}
	if published != 1 {
		t.Fatalf("expected exactly one published row, got %d across %v", published, rows)
	}
}

func TestMemStorePublishOfMissingKeyReturnsNodeDoesNotExist(t *testing.T) {
	m := NewMemStore()
	_, err := m.Publish(context.Background(), "storage/missing", VersionDraft)
	if !errors.Is(err, ErrNodeDoesNotExist) {
		t.Fatalf("expected ErrNodeDoesNotExist, got %v", err)
	}
}

func TestMemStoreDeleteRemovesWholeVersionHistory(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	key := MustParse("storage/five").Key()
	m.Set(ctx, &StoredNode{Key: key, Content: NewContent("x"), Version: VersionDraft})
	m.Publish(ctx, key, VersionDraft)

	deleted, err := m.Delete(ctx, key)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted == nil {
		t.Fatalf("expected the deleted row returned")
	}

	if _, ok, _ := m.Get(ctx, key, VersionDraft); ok {
		t.Fatalf("expected draft gone after delete")
	}
	if _, ok, _ := m.Get(ctx, key, VersionPublished); ok {
		t.Fatalf("expected published row gone after delete")
	}
}

func TestMemStoreSearchFiltersAndDedupes(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	m.Set(ctx, &StoredNode{Key: MustParse("i18n://sv-se@search/a/x").Key(), Content: NewContent("1"), Version: 0})
	m.Set(ctx, &StoredNode{Key: MustParse("i18n://sv-se@search/a/x").Key(), Content: NewContent("2"), Version: 1})
	m.Set(ctx, &StoredNode{Key: MustParse("i18n://en-us@search/a/y").Key(), Content: NewContent("3"), Version: 0})

	results, err := m.Search(ctx, "sv-se", "search/a")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one deduped result for sv-se@search/a/x, got %v", results)
	}
}
