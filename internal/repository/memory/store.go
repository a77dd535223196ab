// Package memory implements the repository interfaces in process memory.
// It backs the test suites and STORAGE_DRIVER=memory for local runs, and
// enforces the same uniqueness rules as the postgres schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
)

type eventItemKey struct{ eventID, itemID int64 }

type collaboratorKey struct{ eventID, userID int64 }

type friendKey struct{ userID, friendID int64 }

type categoryKey struct {
	userID int64
	name   string
}

// Store holds every table. One mutex serializes writers, which gives the
// same atomicity the postgres repositories get from transactions.
type Store struct {
	mu sync.RWMutex

	nextID int64

	users         map[int64]models.User
	categories    map[int64]models.Category
	categoryNames map[categoryKey]int64
	items         map[int64]models.Item
	events        map[int64]models.Event
	eventItems    map[eventItemKey]struct{}
	collaborators map[collaboratorKey]struct{}
	friends       map[friendKey]struct{}
	bookings      map[int64]models.Booking // keyed by item id
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:         make(map[int64]models.User),
		categories:    make(map[int64]models.Category),
		categoryNames: make(map[categoryKey]int64),
		items:         make(map[int64]models.Item),
		events:        make(map[int64]models.Event),
		eventItems:    make(map[eventItemKey]struct{}),
		collaborators: make(map[collaboratorKey]struct{}),
		friends:       make(map[friendKey]struct{}),
		bookings:      make(map[int64]models.Booking),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users returns the user repository view of the store
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Categories returns the category repository view of the store
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }

// Items returns the item repository view of the store
func (s *Store) Items() repository.ItemRepository { return itemRepo{s} }

// Events returns the event repository view of the store
func (s *Store) Events() repository.EventRepository { return eventRepo{s} }

// Friends returns the friend repository view of the store
func (s *Store) Friends() repository.FriendRepository { return friendRepo{s} }

// Bookings returns the booking ledger view of the store
func (s *Store) Bookings() repository.BookingRepository { return bookingRepo{s} }

// BookingCount returns the number of bookings recorded for itemID
func (s *Store) BookingCount(itemID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.bookings[itemID]; ok {
		return 1
	}
	return 0
}

// FriendRowCount returns how many directed friend rows exist
func (s *Store) FriendRowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.friends)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.TelegramID == user.TelegramID {
			return nil, fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
		if user.HasPhone() && u.HasPhone() && *u.Phone == *user.Phone {
			return nil, fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
	}

	user.ID = s.id()
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user

	created := *user
	return &created, nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) find(match func(models.User) bool) *models.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found
		}
	}
	return nil
}

func (r userRepo) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.TelegramID == telegramID }), nil
}

func (r userRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.HasPhone() && *u.Phone == phone }), nil
}

func (r userRepo) UpdatePhone(_ context.Context, id int64, phone string) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	for otherID, other := range s.users {
		if otherID != id && other.HasPhone() && *other.Phone == phone {
			return nil, fmt.Errorf("failed to update phone: %w", repository.ErrDuplicate)
		}
	}

	u.Phone = &phone
	s.users[id] = u
	return &u, nil
}

func sortUsersByID(users []*models.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

type categoryRepo struct{ s *Store }

func (r categoryRepo) GetOrCreate(_ context.Context, userID int64, name string) (*models.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := categoryKey{userID: userID, name: name}
	if id, ok := s.categoryNames[key]; ok {
		c := s.categories[id]
		return &c, nil
	}

	c := models.Category{ID: s.id(), Name: name, UserID: userID}
	s.categories[c.ID] = c
	s.categoryNames[key] = c.ID
	return &c, nil
}

func (r categoryRepo) GetByID(_ context.Context, id int64) (*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r categoryRepo) ListByUser(_ context.Context, userID int64) ([]*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var categories []*models.Category
	for _, c := range r.s.categories {
		if c.UserID == userID {
			c := c
			categories = append(categories, &c)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

type itemRepo struct{ s *Store }

func (r itemRepo) Create(_ context.Context, item *models.Item) (*models.Item, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[item.UserID]; !ok {
		return nil, fmt.Errorf("failed to create item: user %d does not exist", item.UserID)
	}
	if item.Status == "" {
		item.Status = models.ItemStatusFavorite
	}
	item.ID = s.id()
	item.CreatedAt = time.Now()
	s.items[item.ID] = *item

	created := *item
	return &created, nil
}

func (r itemRepo) GetByID(_ context.Context, id int64) (*models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r itemRepo) ListByUser(_ context.Context, userID int64, filters repository.ItemFilters) ([]*models.Item, error) {
	r.s.mu.RLock()
	var items []*models.Item
	for _, item := range r.s.items {
		if item.UserID != userID {
			continue
		}
		if filters.CategoryID != nil && (item.CategoryID == nil || *item.CategoryID != *filters.CategoryID) {
			continue
		}
		item := item
		items = append(items, &item)
	}
	r.s.mu.RUnlock()

	sortItems(items)

	if filters.Offset > 0 {
		if filters.Offset >= len(items) {
			return nil, nil
		}
		items = items[filters.Offset:]
	}
	if filters.Limit > 0 && len(items) > filters.Limit {
		items = items[:filters.Limit]
	}
	return items, nil
}

func (r itemRepo) Update(_ context.Context, item *models.Item) (*models.Item, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok {
		return nil, nil
	}

	// Owner and creation time are immutable.
	item.UserID = existing.UserID
	item.CreatedAt = existing.CreatedAt
	s.items[item.ID] = *item

	updated := *item
	return &updated, nil
}

func (r itemRepo) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item with ID %d not found", id)
	}

	delete(s.items, id)
	delete(s.bookings, id)
	for key := range s.eventItems {
		if key.itemID == id {
			delete(s.eventItems, key)
		}
	}
	return nil
}

func sortItems(items []*models.Item) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

type eventRepo struct{ s *Store }

func (r eventRepo) Create(_ context.Context, event *models.Event) (*models.Event, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[event.UserID]; !ok {
		return nil, fmt.Errorf("failed to create event: user %d does not exist", event.UserID)
	}
	event.ID = s.id()
	event.CreatedAt = time.Now()
	s.events[event.ID] = *event

	created := *event
	return &created, nil
}

func (r eventRepo) GetByID(_ context.Context, id int64) (*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	event, ok := r.s.events[id]
	if !ok {
		return nil, nil
	}
	return &event, nil
}

func (r eventRepo) list(match func(models.Event) bool) []*models.Event {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var events []*models.Event
	for _, e := range r.s.events {
		if match(e) {
			e := e
			events = append(events, &e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

func (r eventRepo) ListByOwner(_ context.Context, userID int64) ([]*models.Event, error) {
	return r.list(func(e models.Event) bool { return e.UserID == userID }), nil
}

func (r eventRepo) ListSharedByOwner(_ context.Context, userID int64) ([]*models.Event, error) {
	return r.list(func(e models.Event) bool { return e.UserID == userID && e.IsShared }), nil
}

func (r eventRepo) ListByCollaborator(_ context.Context, userID int64) ([]*models.Event, error) {
	// Reads the collaborator set under the same lock list takes.
	var ids = make(map[int64]bool)
	r.s.mu.RLock()
	for key := range r.s.collaborators {
		if key.userID == userID {
			ids[key.eventID] = true
		}
	}
	r.s.mu.RUnlock()

	return r.list(func(e models.Event) bool { return ids[e.ID] }), nil
}

func (r eventRepo) Update(_ context.Context, event *models.Event) (*models.Event, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok {
		return nil, nil
	}
	event.UserID = existing.UserID
	event.CreatedAt = existing.CreatedAt
	if !event.IsShared {
		for key := range s.collaborators {
			if key.eventID == event.ID {
				event.IsShared = true
				break
			}
		}
	}
	s.events[event.ID] = *event

	updated := *event
	return &updated, nil
}

func (r eventRepo) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("event with ID %d not found", id)
	}

	delete(s.events, id)
	for key := range s.eventItems {
		if key.eventID == id {
			delete(s.eventItems, key)
		}
	}
	for key := range s.collaborators {
		if key.eventID == id {
			delete(s.collaborators, key)
		}
	}
	return nil
}

func (r eventRepo) AddItem(_ context.Context, eventID, itemID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return fmt.Errorf("failed to add item to event: event %d does not exist", eventID)
	}
	if _, ok := s.items[itemID]; !ok {
		return fmt.Errorf("failed to add item to event: item %d does not exist", itemID)
	}
	s.eventItems[eventItemKey{eventID: eventID, itemID: itemID}] = struct{}{}
	return nil
}

func (r eventRepo) ListItems(_ context.Context, eventID int64) ([]*models.Item, error) {
	r.s.mu.RLock()
	var items []*models.Item
	for key := range r.s.eventItems {
		if key.eventID != eventID {
			continue
		}
		if item, ok := r.s.items[key.itemID]; ok {
			items = append(items, &item)
		}
	}
	r.s.mu.RUnlock()

	sortItems(items)
	return items, nil
}

func (r eventRepo) AddCollaborator(_ context.Context, eventID, userID int64) (*models.EventCollaborator, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, fmt.Errorf("failed to add collaborator: event %d does not exist", eventID)
	}
	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("failed to add collaborator: user %d does not exist", userID)
	}

	event.IsShared = true
	s.events[eventID] = event
	s.collaborators[collaboratorKey{eventID: eventID, userID: userID}] = struct{}{}

	return &models.EventCollaborator{EventID: eventID, UserID: userID}, nil
}

func (r eventRepo) RemoveCollaborator(_ context.Context, eventID, userID int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := collaboratorKey{eventID: eventID, userID: userID}
	if _, ok := s.collaborators[key]; !ok {
		return false, nil
	}
	delete(s.collaborators, key)
	return true, nil
}

func (r eventRepo) IsCollaborator(_ context.Context, eventID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.collaborators[collaboratorKey{eventID: eventID, userID: userID}]
	return ok, nil
}

func (r eventRepo) ListCollaborators(_ context.Context, eventID int64) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var users []*models.User
	for key := range r.s.collaborators {
		if key.eventID != eventID {
			continue
		}
		if u, ok := r.s.users[key.userID]; ok {
			users = append(users, &u)
		}
	}
	sortUsersByID(users)
	return users, nil
}

// ---------------------------------------------------------------------------
// Friends
// ---------------------------------------------------------------------------

type friendRepo struct{ s *Store }

func (r friendRepo) AddPair(_ context.Context, pair models.FriendPair) (bool, error) {
	if pair.IsLoop() {
		return false, fmt.Errorf("failed to add friend pair: user %d cannot befriend themselves", pair.A)
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []int64{pair.A, pair.B} {
		if _, ok := s.users[id]; !ok {
			return false, fmt.Errorf("failed to add friend pair: user %d does not exist", id)
		}
	}

	forward := friendKey{userID: pair.A, friendID: pair.B}
	backward := friendKey{userID: pair.B, friendID: pair.A}
	_, hadForward := s.friends[forward]
	_, hadBackward := s.friends[backward]

	s.friends[forward] = struct{}{}
	s.friends[backward] = struct{}{}
	return !hadForward || !hadBackward, nil
}

func (r friendRepo) RemovePair(_ context.Context, pair models.FriendPair) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.friends, friendKey{userID: pair.A, friendID: pair.B})
	delete(s.friends, friendKey{userID: pair.B, friendID: pair.A})
	return nil
}

func (r friendRepo) Exists(_ context.Context, pair models.FriendPair) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.friends[friendKey{userID: pair.A, friendID: pair.B}]
	return ok, nil
}

func (r friendRepo) ListFriends(_ context.Context, userID int64) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var users []*models.User
	for key := range r.s.friends {
		if key.userID != userID {
			continue
		}
		if u, ok := r.s.users[key.friendID]; ok {
			users = append(users, &u)
		}
	}
	sortUsersByID(users)
	return users, nil
}

// ---------------------------------------------------------------------------
// Bookings
// ---------------------------------------------------------------------------

type bookingRepo struct{ s *Store }

func (r bookingRepo) Create(_ context.Context, booking *models.Booking) (*models.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[booking.ItemID]; !ok {
		return nil, fmt.Errorf("failed to create booking: item %d does not exist", booking.ItemID)
	}
	if _, ok := s.bookings[booking.ItemID]; ok {
		return nil, fmt.Errorf("item %d: %w", booking.ItemID, repository.ErrDuplicate)
	}

	booking.ID = s.id()
	booking.CreatedAt = time.Now()
	s.bookings[booking.ItemID] = *booking

	created := *booking
	return &created, nil
}

func (r bookingRepo) GetByItemID(_ context.Context, itemID int64) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[itemID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r bookingRepo) BookedItemIDs(_ context.Context, itemIDs []int64) (map[int64]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	booked := make(map[int64]bool)
	for _, id := range itemIDs {
		if _, ok := r.s.bookings[id]; ok {
			booked[id] = true
		}
	}
	return booked, nil
}
