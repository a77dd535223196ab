package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
)

func seedUser(t *testing.T, s *Store, telegramID int64) *models.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &models.User{TelegramID: telegramID, Name: "user"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func seedItem(t *testing.T, s *Store, ownerID int64, title string) *models.Item {
	t.Helper()
	item, err := s.Items().Create(context.Background(), &models.Item{UserID: ownerID, Title: title})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	phone := "+10000000001"

	if _, err := s.Users().Create(ctx, &models.User{TelegramID: 1, Phone: &phone}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Users().Create(ctx, &models.User{TelegramID: 1}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate telegram id: got %v, want ErrDuplicate", err)
	}
	if _, err := s.Users().Create(ctx, &models.User{TelegramID: 2, Phone: &phone}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate phone: got %v, want ErrDuplicate", err)
	}

	got, err := s.Users().GetByPhone(ctx, phone)
	if err != nil || got == nil || got.TelegramID != 1 {
		t.Fatalf("GetByPhone = %+v, %v", got, err)
	}
	missing, err := s.Users().GetByTelegramID(ctx, 99)
	if err != nil || missing != nil {
		t.Fatalf("GetByTelegramID(missing) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestCategoryGetOrCreateIsPerUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := seedUser(t, s, 1)
	b := seedUser(t, s, 2)

	c1, _ := s.Categories().GetOrCreate(ctx, a.ID, "Books")
	c2, _ := s.Categories().GetOrCreate(ctx, a.ID, "Books")
	c3, _ := s.Categories().GetOrCreate(ctx, b.ID, "Books")

	if c1.ID != c2.ID {
		t.Errorf("same owner and name gave ids %d and %d", c1.ID, c2.ID)
	}
	if c1.ID == c3.ID {
		t.Errorf("different owners share category %d", c1.ID)
	}
}

func TestItemListPaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, 1)
	for _, title := range []string{"a", "b", "c"} {
		seedItem(t, s, u.ID, title)
	}

	items, _ := s.Items().ListByUser(ctx, u.ID, repository.ItemFilters{Limit: 2, Offset: 1})
	if len(items) != 2 || items[0].Title != "b" || items[1].Title != "c" {
		t.Fatalf("unexpected page: %+v", items)
	}
	items, _ = s.Items().ListByUser(ctx, u.ID, repository.ItemFilters{Offset: 5})
	if len(items) != 0 {
		t.Fatalf("offset past end returned %d items", len(items))
	}
}

func TestItemDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := seedUser(t, s, 1)
	booker := seedUser(t, s, 2)
	item := seedItem(t, s, owner.ID, "bike")
	event, _ := s.Events().Create(ctx, &models.Event{UserID: owner.ID, Title: "birthday"})

	if err := s.Events().AddItem(ctx, event.ID, item.ID); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := s.Bookings().Create(ctx, &models.Booking{ItemID: item.ID, BookedByUserID: booker.ID}); err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := s.Items().Delete(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if n := s.BookingCount(item.ID); n != 0 {
		t.Errorf("booking survived delete")
	}
	items, _ := s.Events().ListItems(ctx, event.ID)
	if len(items) != 0 {
		t.Errorf("event still lists %d items", len(items))
	}
}

func TestEventAddItemIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := seedUser(t, s, 1)
	item := seedItem(t, s, owner.ID, "lamp")
	event, _ := s.Events().Create(ctx, &models.Event{UserID: owner.ID, Title: "housewarming"})

	for i := 0; i < 3; i++ {
		if err := s.Events().AddItem(ctx, event.ID, item.ID); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}
	items, _ := s.Events().ListItems(ctx, event.ID)
	if len(items) != 1 {
		t.Fatalf("ListItems returned %d items, want 1", len(items))
	}
}

func TestAddCollaboratorSetsShared(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := seedUser(t, s, 1)
	helper := seedUser(t, s, 2)
	event, _ := s.Events().Create(ctx, &models.Event{UserID: owner.ID, Title: "wedding"})

	if _, err := s.Events().AddCollaborator(ctx, event.ID, helper.ID); err != nil {
		t.Fatalf("add collaborator: %v", err)
	}
	got, _ := s.Events().GetByID(ctx, event.ID)
	if !got.IsShared {
		t.Fatal("event not shared after adding a collaborator")
	}

	removed, _ := s.Events().RemoveCollaborator(ctx, event.ID, helper.ID)
	if !removed {
		t.Fatal("RemoveCollaborator reported nothing removed")
	}
	removed, _ = s.Events().RemoveCollaborator(ctx, event.ID, helper.ID)
	if removed {
		t.Fatal("second RemoveCollaborator reported a removal")
	}
	got, _ = s.Events().GetByID(ctx, event.ID)
	if !got.IsShared {
		t.Fatal("removing a collaborator reverted is_shared")
	}
}

func TestFriendPairSymmetric(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := seedUser(t, s, 1)
	b := seedUser(t, s, 2)
	pair := models.NewFriendPair(b.ID, a.ID)

	created, err := s.Friends().AddPair(ctx, pair)
	if err != nil || !created {
		t.Fatalf("AddPair = %v, %v", created, err)
	}
	created, _ = s.Friends().AddPair(ctx, pair)
	if created {
		t.Fatal("second AddPair reported creation")
	}
	if n := s.FriendRowCount(); n != 2 {
		t.Fatalf("friend rows = %d, want 2", n)
	}

	fa, _ := s.Friends().ListFriends(ctx, a.ID)
	fb, _ := s.Friends().ListFriends(ctx, b.ID)
	if len(fa) != 1 || fa[0].ID != b.ID || len(fb) != 1 || fb[0].ID != a.ID {
		t.Fatalf("asymmetric friends: %v / %v", fa, fb)
	}

	if err := s.Friends().RemovePair(ctx, pair); err != nil {
		t.Fatalf("RemovePair: %v", err)
	}
	if err := s.Friends().RemovePair(ctx, pair); err != nil {
		t.Fatalf("RemovePair twice: %v", err)
	}
	if n := s.FriendRowCount(); n != 0 {
		t.Fatalf("friend rows after removal = %d", n)
	}
}

func TestFriendPairRejectsLoop(t *testing.T) {
	s := New()
	a := seedUser(t, s, 1)
	if _, err := s.Friends().AddPair(context.Background(), models.NewFriendPair(a.ID, a.ID)); err == nil {
		t.Fatal("expected an error for a self pair")
	}
	if n := s.FriendRowCount(); n != 0 {
		t.Fatalf("friend rows = %d, want 0", n)
	}
}

func TestBookingCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := seedUser(t, s, 1)
	item := seedItem(t, s, owner.ID, "watch")

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.Bookings().Create(ctx, &models.Booking{ItemID: item.ID, BookedByUserID: int64(100 + n)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, repository.ErrDuplicate):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("successes=%d conflicts=%d", successes, conflicts)
	}
	if n := s.BookingCount(item.ID); n != 1 {
		t.Fatalf("booking count = %d", n)
	}
}

func TestListFriendsOrderedByID(t *testing.T) {
	ctx := context.Background()
	s := New()
	me := seedUser(t, s, 1)
	zed, _ := s.Users().Create(ctx, &models.User{TelegramID: 2, Name: "Zed"})
	amy, _ := s.Users().Create(ctx, &models.User{TelegramID: 3, Name: "Amy"})

	for _, friend := range []*models.User{amy, zed} {
		if _, err := s.Friends().AddPair(ctx, models.NewFriendPair(me.ID, friend.ID)); err != nil {
			t.Fatalf("AddPair: %v", err)
		}
	}

	friends, _ := s.Friends().ListFriends(ctx, me.ID)
	if len(friends) != 2 || friends[0].ID != zed.ID || friends[1].ID != amy.ID {
		t.Fatalf("friends = %+v, want zed then amy", friends)
	}
}
