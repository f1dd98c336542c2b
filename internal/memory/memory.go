// Package memory is the in-process store behind the book, mail, location and
// contact actions. Nothing here is persisted.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"voxelagent.ai/internal/actions"
	"voxelagent.ai/internal/snapshot"
	"voxelagent.ai/internal/world"
)

var (
	ErrBookFull         = errors.New("memory: book is full")
	ErrNoPage           = errors.New("memory: no such page")
	ErrUnknownRecipient = errors.New("memory: unknown recipient")
	ErrNotFound         = errors.New("memory: not found")
)

// Limits caps each collection. Full books refuse new pages; full mailboxes,
// location lists and contact lists drop their oldest entry.
type Limits struct {
	MaxPages     int
	MaxMessages  int
	MaxLocations int
	MaxContacts  int
}

func DefaultLimits() Limits {
	return Limits{MaxPages: 50, MaxMessages: 20, MaxLocations: 10, MaxContacts: 20}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MaxPages <= 0 {
		l.MaxPages = d.MaxPages
	}
	if l.MaxMessages <= 0 {
		l.MaxMessages = d.MaxMessages
	}
	if l.MaxLocations <= 0 {
		l.MaxLocations = d.MaxLocations
	}
	if l.MaxContacts <= 0 {
		l.MaxContacts = d.MaxContacts
	}
	return l
}

// Commons holds the shared book and the mailboxes. Each agent gets its own
// unless the caller hands the same Commons to several agents, which is the
// only state agents of one process ever share.
type Commons struct {
	mu      sync.RWMutex
	limits  Limits
	shared  []snapshot.Page
	inboxes map[string][]snapshot.Mail
}

func NewCommons(l Limits) *Commons {
	return &Commons{limits: l.normalized(), inboxes: map[string][]snapshot.Mail{}}
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func (c *Commons) register(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inboxes[key(name)]; !ok {
		c.inboxes[key(name)] = nil
	}
}

func (c *Commons) deliver(to string, m snapshot.Mail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	box, ok := c.inboxes[key(to)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, to)
	}
	c.inboxes[key(to)] = dropOldest(append(box, m), c.limits.MaxMessages)
	return nil
}

func (c *Commons) inbox(name string) []snapshot.Mail {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]snapshot.Mail{}, c.inboxes[key(name)]...)
}

func (c *Commons) sharedBook() []snapshot.Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]snapshot.Page{}, c.shared...)
}

// Store is one agent's view: its private book, locations and contacts, plus
// the commons.
type Store struct {
	name    string
	commons *Commons
	limits  Limits

	mu        sync.RWMutex
	private   []snapshot.Page
	locations []snapshot.Location
	contacts  []snapshot.Contact
}

// NewStore registers name's mailbox in commons. A nil commons gives the agent
// a private one.
func NewStore(name string, commons *Commons, l Limits) *Store {
	l = l.normalized()
	if commons == nil {
		commons = NewCommons(l)
	}
	commons.register(name)
	return &Store{name: name, commons: commons, limits: l}
}

func (s *Store) Name() string { return s.name }

func upsertPage(pages []snapshot.Page, p snapshot.Page, limit int) ([]snapshot.Page, error) {
	for i := range pages {
		if strings.EqualFold(pages[i].Title, p.Title) {
			pages[i] = p
			return pages, nil
		}
	}
	if len(pages) >= limit {
		return pages, ErrBookFull
	}
	return append(pages, p), nil
}

func removePage(pages []snapshot.Page, title string) ([]snapshot.Page, error) {
	for i := range pages {
		if strings.EqualFold(pages[i].Title, title) {
			return append(pages[:i], pages[i+1:]...), nil
		}
	}
	return pages, fmt.Errorf("%w: %s", ErrNoPage, title)
}

// PutPage adds or replaces the page with the given title.
func (s *Store) PutPage(_ context.Context, book actions.Book, title, content string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("memory: empty page title")
	}
	p := snapshot.Page{Title: title, Content: content, Author: s.name}
	var err error
	if book == actions.SharedBook {
		s.commons.mu.Lock()
		s.commons.shared, err = upsertPage(s.commons.shared, p, s.commons.limits.MaxPages)
		s.commons.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.private, err = upsertPage(s.private, p, s.limits.MaxPages)
	s.mu.Unlock()
	return err
}

func (s *Store) RemovePage(_ context.Context, book actions.Book, title string) error {
	var err error
	if book == actions.SharedBook {
		s.commons.mu.Lock()
		s.commons.shared, err = removePage(s.commons.shared, title)
		s.commons.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.private, err = removePage(s.private, title)
	s.mu.Unlock()
	return err
}

// Send delivers a message without a subject.
func (s *Store) Send(ctx context.Context, recipient, content string) error {
	return s.SendMail(ctx, recipient, "", content)
}

func (s *Store) SendMail(_ context.Context, recipient, subject, content string) error {
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownRecipient)
	}
	return s.commons.deliver(recipient, snapshot.Mail{From: s.name, Subject: subject, Content: content})
}

func (s *Store) Inbox() []snapshot.Mail { return s.commons.inbox(s.name) }

// dropOldest keeps the newest limit entries.
func dropOldest[T any](list []T, limit int) []T {
	if over := len(list) - limit; over > 0 {
		return append(list[:0], list[over:]...)
	}
	return list
}

// SaveLocation adds or replaces a named location. The saved location becomes
// the newest; a full list forgets its oldest one.
func (s *Store) SaveLocation(name, description string, pos world.BlockPos) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("memory: empty location name")
	}
	loc := snapshot.Location{Name: name, Description: description, Pos: pos}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.locations {
		if strings.EqualFold(s.locations[i].Name, name) {
			s.locations = append(s.locations[:i], s.locations[i+1:]...)
			break
		}
	}
	s.locations = dropOldest(append(s.locations, loc), s.limits.MaxLocations)
	return nil
}

func (s *Store) ForgetLocation(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.locations {
		if strings.EqualFold(s.locations[i].Name, name) {
			s.locations = append(s.locations[:i], s.locations[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: location %s", ErrNotFound, name)
}

// PutContact adds or replaces a contact. Empty fields keep their old value
// on update. The touched contact becomes the most recent; a full list drops
// the least recently touched one.
func (s *Store) PutContact(name, relationship, notes string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("memory: empty contact name")
	}
	c := snapshot.Contact{Name: name, Relationship: relationship, Notes: notes}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contacts {
		old := s.contacts[i]
		if !strings.EqualFold(old.Name, name) {
			continue
		}
		c.Name = old.Name
		if relationship == "" {
			c.Relationship = old.Relationship
		}
		if notes == "" {
			c.Notes = old.Notes
		}
		s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
		break
	}
	s.contacts = dropOldest(append(s.contacts, c), s.limits.MaxContacts)
	return nil
}

func (s *Store) RemoveContact(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contacts {
		if strings.EqualFold(s.contacts[i].Name, name) {
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: contact %s", ErrNotFound, name)
}

// MemoryFragment is the snapshot view of everything the agent remembers.
func (s *Store) MemoryFragment() *snapshot.Memory {
	s.mu.RLock()
	m := &snapshot.Memory{
		Locations:   append([]snapshot.Location{}, s.locations...),
		Contacts:    append([]snapshot.Contact{}, s.contacts...),
		PrivateBook: append([]snapshot.Page{}, s.private...),
	}
	s.mu.RUnlock()
	m.SharedBook = s.commons.sharedBook()
	m.Inbox = s.commons.inbox(s.name)
	return m
}
