package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serejivanov62/wish/internal/metrics"
	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository/memory"
	"github.com/serejivanov62/wish/pkg/logger"
)

type fixture struct {
	store *memory.Store
	svc   *Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := memory.New()
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	svc := New(logger.Discard(), Repositories{
		Users:      store.Users(),
		Categories: store.Categories(),
		Items:      store.Items(),
		Events:     store.Events(),
		Friends:    store.Friends(),
		Bookings:   store.Bookings(),
	}, opts)
	return &fixture{store: store, svc: svc}
}

func (f *fixture) user(t *testing.T, telegramID int64, phone string) *models.User {
	t.Helper()
	u, err := f.svc.ResolveUser(context.Background(), Identity{
		TelegramID: telegramID,
		Name:       "User",
		Phone:      phone,
	})
	if err != nil {
		t.Fatalf("ResolveUser(%d): %v", telegramID, err)
	}
	return u
}

func (f *fixture) item(t *testing.T, ownerID int64, title, category string) *models.Item {
	t.Helper()
	item, err := f.svc.CreateItem(context.Background(), ownerID, models.ItemInput{Title: title, CategoryName: category})
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", title, err)
	}
	return item
}

func (f *fixture) event(t *testing.T, ownerID int64, title string) *models.Event {
	t.Helper()
	event, err := f.svc.CreateEvent(context.Background(), ownerID, models.EventInput{Title: title})
	if err != nil {
		t.Fatalf("CreateEvent(%q): %v", title, err)
	}
	return event
}

func (f *fixture) befriend(t *testing.T, a *models.User, b *models.User) {
	t.Helper()
	if _, err := f.svc.AddFriend(context.Background(), a.ID, *b.Phone); err != nil {
		t.Fatalf("AddFriend(%d, %d): %v", a.ID, b.ID, err)
	}
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("got error %v, want %v", err, target)
	}
}

func TestScenarioBookingVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	u1 := f.user(t, 1001, "+10000000001")
	i1 := f.item(t, u1.ID, "Lamp", "Home")
	e1 := f.event(t, u1.ID, "Birthday")
	if err := f.svc.AddItem(ctx, e1.ID, u1.ID, i1.ID); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	u2 := f.user(t, 1002, "+10000000002")
	if _, err := f.svc.AddFriend(ctx, u1.ID, *u2.Phone); err != nil {
		t.Fatalf("AddFriend: %v", err)
	}
	for _, pair := range [][2]int64{{u1.ID, u2.ID}, {u2.ID, u1.ID}} {
		friends, _ := f.svc.ListFriends(ctx, pair[0])
		if len(friends) != 1 || friends[0].ID != pair[1] {
			t.Fatalf("friends of %d = %v", pair[0], friends)
		}
	}

	if _, err := f.svc.AddCollaborator(ctx, e1.ID, u1.ID, u2.ID); err != nil {
		t.Fatalf("AddCollaborator: %v", err)
	}
	shared, _ := f.store.Events().GetByID(ctx, e1.ID)
	if !shared.IsShared {
		t.Fatal("event not shared after adding collaborator")
	}

	booking, err := f.svc.AttemptBooking(ctx, i1.ID, u2.ID)
	if err != nil {
		t.Fatalf("AttemptBooking(U2): %v", err)
	}
	if booking.ItemID != i1.ID || booking.BookedByUserID != u2.ID {
		t.Fatalf("booking = %+v", booking)
	}

	u3 := f.user(t, 1003, "+10000000003")
	_, err = f.svc.AttemptBooking(ctx, i1.ID, u3.ID)
	wantErr(t, err, ErrConflict)

	ownerView, err := f.svc.ResolveEventView(ctx, e1.ID, u1.ID)
	if err != nil {
		t.Fatalf("ResolveEventView(U1): %v", err)
	}
	if len(ownerView.Items) != 1 || ownerView.Items[0].IsBooked {
		t.Fatalf("owner view = %+v, want one unbooked item", ownerView.Items)
	}

	helperView, err := f.svc.ResolveEventView(ctx, e1.ID, u2.ID)
	if err != nil {
		t.Fatalf("ResolveEventView(U2): %v", err)
	}
	if len(helperView.Items) != 1 || !helperView.Items[0].IsBooked {
		t.Fatalf("collaborator view = %+v, want one booked item", helperView.Items)
	}
	if len(helperView.Collaborators) != 1 || helperView.Collaborators[0].ID != u2.ID {
		t.Fatalf("collaborators = %+v", helperView.Collaborators)
	}

	// Status is advisory and untouched by the booking.
	stored, _ := f.store.Items().GetByID(ctx, i1.ID)
	if stored.Status != models.ItemStatusFavorite {
		t.Fatalf("status = %q, want favorite", stored.Status)
	}
}

func TestRevealBookings(t *testing.T) {
	items := []*models.Item{{ID: 1}, {ID: 2}}
	booked := map[int64]bool{1: true}

	owner := revealBookings(7, 7, items, booked)
	for _, v := range owner {
		if v.IsBooked {
			t.Fatalf("owner sees item %d booked", v.ID)
		}
	}

	other := revealBookings(8, 7, items, booked)
	if !other[0].IsBooked || other[1].IsBooked {
		t.Fatalf("non-owner flags = %v, %v", other[0].IsBooked, other[1].IsBooked)
	}
}

func TestEventViewAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	owner := f.user(t, 1, "+10000000001")
	friend := f.user(t, 2, "+10000000002")
	stranger := f.user(t, 3, "+10000000003")
	f.befriend(t, owner, friend)
	event := f.event(t, owner.ID, "Party")

	if _, err := f.svc.ResolveEventView(ctx, event.ID, friend.ID); err != nil {
		t.Fatalf("friend view: %v", err)
	}
	_, err := f.svc.ResolveEventView(ctx, event.ID, stranger.ID)
	wantErr(t, err, ErrNotFound)
	_, err = f.svc.ResolveEventView(ctx, 9999, owner.ID)
	wantErr(t, err, ErrNotFound)
}

func TestBookingConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	owner := f.user(t, 1, "+10000000001")
	item := f.item(t, owner.ID, "Camera", "")

	const workers = 24
	bookers := make([]*models.User, workers)
	for i := range bookers {
		bookers[i] = f.user(t, int64(100+i), "")
	}

	errs := make(chan error, workers)
	start := make(chan struct{})
	for _, b := range bookers {
		go func(id int64) {
			<-start
			_, err := f.svc.AttemptBooking(ctx, item.ID, id)
			errs <- err
		}(b.ID)
	}
	close(start)

	var ok, conflicts int
	for i := 0; i < workers; i++ {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != workers-1 {
		t.Fatalf("ok=%d conflicts=%d", ok, conflicts)
	}
	if n := f.store.BookingCount(item.ID); n != 1 {
		t.Fatalf("ledger has %d bookings", n)
	}
}

func TestBookingRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	owner := f.user(t, 1, "+10000000001")
	item := f.item(t, owner.ID, "Book", "")

	_, err := f.svc.AttemptBooking(ctx, item.ID, owner.ID)
	wantErr(t, err, ErrForbidden)
	_, err = f.svc.AttemptBooking(ctx, 424242, owner.ID)
	wantErr(t, err, ErrNotFound)
}

func TestFriendshipSymmetryAndRemoval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	a := f.user(t, 1, "+10000000001")
	b := f.user(t, 2, "+10000000002")

	got, err := f.svc.AddFriend(ctx, a.ID, "+1 (000) 000-00-02")
	if err != nil {
		t.Fatalf("AddFriend with formatted phone: %v", err)
	}
	if got.ID != b.ID {
		t.Fatalf("AddFriend resolved user %d, want %d", got.ID, b.ID)
	}
	if _, err := f.svc.AddFriend(ctx, a.ID, *b.Phone); err != nil {
		t.Fatalf("repeated AddFriend: %v", err)
	}
	if n := f.store.FriendRowCount(); n != 2 {
		t.Fatalf("friend rows = %d, want 2", n)
	}

	ok, _ := f.svc.AreFriends(ctx, b.ID, a.ID)
	if !ok {
		t.Fatal("friendship not symmetric")
	}

	if err := f.svc.RemoveFriend(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("RemoveFriend: %v", err)
	}
	if err := f.svc.RemoveFriend(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("RemoveFriend when absent: %v", err)
	}
	if n := f.store.FriendRowCount(); n != 0 {
		t.Fatalf("friend rows after removal = %d", n)
	}
}

func TestAddFriendErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	a := f.user(t, 1, "+10000000001")

	_, err := f.svc.AddFriend(ctx, a.ID, *a.Phone)
	wantErr(t, err, ErrConflict)
	if n := f.store.FriendRowCount(); n != 0 {
		t.Fatalf("self friend wrote %d rows", n)
	}

	_, err = f.svc.AddFriend(ctx, a.ID, "+19999999999")
	wantErr(t, err, ErrNotFound)

	_, err = f.svc.AddFriend(ctx, a.ID, "12")
	wantErr(t, err, ErrInvalid)
}

func TestCollaboratorRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	owner := f.user(t, 1, "+10000000001")
	helper := f.user(t, 2, "+10000000002")
	other := f.user(t, 3, "+10000000003")
	event := f.event(t, owner.ID, "Wedding")

	_, err := f.svc.AddCollaborator(ctx, event.ID, helper.ID, other.ID)
	wantErr(t, err, ErrForbidden)
	_, err = f.svc.AddCollaborator(ctx, event.ID, owner.ID, owner.ID)
	wantErr(t, err, ErrConflict)
	_, err = f.svc.AddCollaborator(ctx, event.ID, owner.ID, 9999)
	wantErr(t, err, ErrNotFound)
	_, err = f.svc.AddCollaborator(ctx, 9999, owner.ID, helper.ID)
	wantErr(t, err, ErrNotFound)

	for i := 0; i < 2; i++ {
		c, err := f.svc.AddCollaborator(ctx, event.ID, owner.ID, helper.ID)
		if err != nil {
			t.Fatalf("AddCollaborator #%d: %v", i, err)
		}
		if c.EventID != event.ID || c.UserID != helper.ID {
			t.Fatalf("collaborator = %+v", c)
		}
	}
	view, _ := f.svc.ResolveEventView(ctx, event.ID, owner.ID)
	if len(view.Collaborators) != 1 {
		t.Fatalf("collaborators = %d, want 1", len(view.Collaborators))
	}

	// Unsharing is ignored while collaborators remain.
	updated, err := f.svc.UpdateEvent(ctx, owner.ID, event.ID, models.EventInput{Title: "Wedding", IsShared: false})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if !updated.IsShared {
		t.Fatal("UpdateEvent unshared an event with collaborators")
	}

	wantErr(t, f.svc.RemoveCollaborator(ctx, event.ID, helper.ID, helper.ID), ErrForbidden)
	if err := f.svc.RemoveCollaborator(ctx, event.ID, owner.ID, helper.ID); err != nil {
		t.Fatalf("RemoveCollaborator: %v", err)
	}
	wantErr(t, f.svc.RemoveCollaborator(ctx, event.ID, owner.ID, helper.ID), ErrNotFound)

	still, _ := f.store.Events().GetByID(ctx, event.ID)
	if !still.IsShared {
		t.Fatal("RemoveCollaborator reverted is_shared")
	}
}

func TestAddItemRights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	owner := f.user(t, 1, "+10000000001")
	helper := f.user(t, 2, "+10000000002")
	friend := f.user(t, 3, "+10000000003")
	stranger := f.user(t, 4, "+10000000004")
	f.befriend(t, owner, friend)

	event := f.event(t, owner.ID, "Anniversary")
	if _, err := f.svc.AddCollaborator(ctx, event.ID, owner.ID, helper.ID); err != nil {
		t.Fatalf("AddCollaborator: %v", err)
	}
	ownerItem := f.item(t, owner.ID, "Vase", "")
	helperItem := f.item(t, helper.ID, "Card", "")
	strangerItem := f.item(t, stranger.ID, "Rock", "")

	if err := f.svc.AddItem(ctx, event.ID, helper.ID, ownerItem.ID); err != nil {
		t.Fatalf("collaborator adds owner's item: %v", err)
	}
	if err := f.svc.AddItem(ctx, event.ID, helper.ID, helperItem.ID); err != nil {
		t.Fatalf("collaborator adds own item: %v", err)
	}
	if err := f.svc.AddItem(ctx, event.ID, owner.ID, ownerItem.ID); err != nil {
		t.Fatalf("re-adding item: %v", err)
	}

	wantErr(t, f.svc.AddItem(ctx, event.ID, friend.ID, ownerItem.ID), ErrForbidden)
	wantErr(t, f.svc.AddItem(ctx, event.ID, stranger.ID, strangerItem.ID), ErrNotFound)
	wantErr(t, f.svc.AddItem(ctx, event.ID, owner.ID, strangerItem.ID), ErrNotFound)
	wantErr(t, f.svc.AddItem(ctx, event.ID, owner.ID, 9999), ErrNotFound)
	wantErr(t, f.svc.AddItem(ctx, 9999, owner.ID, ownerItem.ID), ErrNotFound)

	view, _ := f.svc.ResolveEventView(ctx, event.ID, owner.ID)
	if len(view.Items) != 2 {
		t.Fatalf("event has %d items, want 2", len(view.Items))
	}
}

func TestListSharedEventsDeduplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	a := f.user(t, 1, "+10000000001")
	b := f.user(t, 2, "+10000000002")

	own, _ := f.svc.CreateEvent(ctx, a.ID, models.EventInput{Title: "Own shared", IsShared: true})
	f.event(t, a.ID, "Own private")
	theirs := f.event(t, b.ID, "Theirs")
	if _, err := f.svc.AddCollaborator(ctx, theirs.ID, b.ID, a.ID); err != nil {
		t.Fatalf("AddCollaborator: %v", err)
	}

	events, err := f.svc.ListSharedEvents(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListSharedEvents: %v", err)
	}
	if len(events) != 2 || events[0].ID != own.ID || events[1].ID != theirs.ID {
		t.Fatalf("shared events = %+v", events)
	}

	if got := mergeEvents(events, events); len(got) != 2 {
		t.Fatalf("mergeEvents kept %d duplicates", len(got))
	}
}

func TestListEventsByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	owner := f.user(t, 1, "+10000000001")
	friend := f.user(t, 2, "+10000000002")
	stranger := f.user(t, 3, "+10000000003")
	f.befriend(t, friend, owner)
	f.event(t, owner.ID, "One")
	f.event(t, owner.ID, "Two")

	for _, caller := range []int64{owner.ID, friend.ID} {
		events, err := f.svc.ListEventsByOwner(ctx, caller, owner.ID)
		if err != nil || len(events) != 2 {
			t.Fatalf("ListEventsByOwner(%d) = %d events, %v", caller, len(events), err)
		}
	}
	_, err := f.svc.ListEventsByOwner(ctx, stranger.ID, owner.ID)
	wantErr(t, err, ErrNotFound)
}

func TestEventOwnerOnlyMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	owner := f.user(t, 1, "+10000000001")
	other := f.user(t, 2, "+10000000002")
	event := f.event(t, owner.ID, "Graduation")

	_, err := f.svc.UpdateEvent(ctx, other.ID, event.ID, models.EventInput{Title: "Mine"})
	wantErr(t, err, ErrNotFound)
	wantErr(t, f.svc.DeleteEvent(ctx, other.ID, event.ID), ErrNotFound)

	date := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.UpdateEvent(ctx, owner.ID, event.ID, models.EventInput{Title: "Graduation party", Date: &date})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.Title != "Graduation party" || updated.Date == nil || !updated.Date.Equal(date) {
		t.Fatalf("updated = %+v", updated)
	}

	_, err = f.svc.UpdateEvent(ctx, owner.ID, event.ID, models.EventInput{Title: "  "})
	wantErr(t, err, ErrInvalid)

	if err := f.svc.DeleteEvent(ctx, owner.ID, event.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	_, err = f.svc.ResolveEventView(ctx, event.ID, owner.ID)
	wantErr(t, err, ErrNotFound)
}
