package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// memDB is an in-memory rendition of the store bundle. memTx snapshots it
// before each transaction and restores on error, so rollback semantics
// match the real client.
type memDB struct {
	cards       map[string]domain.Card
	users       map[string]domain.UserStats
	listings    map[string]domain.Listing
	auctions    map[string]domain.Auction
	marketplace *domain.Marketplace
	collections map[string]domain.Collection
	sales       []domain.Sale
	chests      []domain.ChestGrant
	audit       []domain.AuditEntry
	holders     map[string]string
}

func newMemDB() *memDB {
	return &memDB{
		cards:       make(map[string]domain.Card),
		users:       make(map[string]domain.UserStats),
		listings:    make(map[string]domain.Listing),
		auctions:    make(map[string]domain.Auction),
		collections: make(map[string]domain.Collection),
		holders:     make(map[string]string),
	}
}

func (db *memDB) clone() *memDB {
	cp := newMemDB()
	for k, v := range db.cards {
		cp.cards[k] = v
	}
	for k, v := range db.users {
		cp.users[k] = v
	}
	for k, v := range db.listings {
		cp.listings[k] = v
	}
	for k, v := range db.auctions {
		cp.auctions[k] = v
	}
	for k, v := range db.collections {
		cp.collections[k] = v
	}
	for k, v := range db.holders {
		cp.holders[k] = v
	}
	if db.marketplace != nil {
		m := *db.marketplace
		cp.marketplace = &m
	}
	cp.sales = append([]domain.Sale(nil), db.sales...)
	cp.chests = append([]domain.ChestGrant(nil), db.chests...)
	cp.audit = append([]domain.AuditEntry(nil), db.audit...)
	return cp
}

func (db *memDB) stores() domain.Stores {
	return domain.Stores{
		Cards:       &memCards{db},
		UserStats:   &memUsers{db},
		Listings:    &memListings{db},
		Auctions:    &memAuctions{db},
		Marketplace: &memMarketplace{db},
		Collections: &memCollections{db},
		Sales:       &memSales{db},
		Chests:      &memChests{db},
		Audit:       &memAudit{db},
		Ledger:      &memLedger{db},
	}
}

// memTx runs fn against the live db and restores the snapshot on error.
type memTx struct {
	db *memDB
}

func (t *memTx) InTx(_ context.Context, fn func(s domain.Stores) error) error {
	snap := t.db.clone()
	if err := fn(t.db.stores()); err != nil {
		*t.db = *snap
		return err
	}
	return nil
}

type memCards struct{ db *memDB }

func (s *memCards) Create(_ context.Context, c domain.Card) error {
	if _, ok := s.db.cards[c.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.db.cards[c.ID] = c
	return nil
}

func (s *memCards) Update(_ context.Context, c domain.Card) error {
	if _, ok := s.db.cards[c.ID]; !ok {
		return domain.ErrNotFound
	}
	s.db.cards[c.ID] = c
	return nil
}

func (s *memCards) GetByID(_ context.Context, id string) (domain.Card, error) {
	c, ok := s.db.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *memCards) ListByOwner(_ context.Context, owner string, _ domain.ListOpts) ([]domain.Card, error) {
	var out []domain.Card
	for _, c := range s.db.cards {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memCards) ListListed(_ context.Context, _ domain.ListOpts) ([]domain.Card, error) {
	var out []domain.Card
	for _, c := range s.db.cards {
		if c.IsListed {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memCards) Count(_ context.Context) (int64, error) {
	return int64(len(s.db.cards)), nil
}

type memUsers struct{ db *memDB }

func (s *memUsers) Create(_ context.Context, u domain.UserStats) error {
	if _, ok := s.db.users[u.Owner]; ok {
		return domain.ErrAlreadyExists
	}
	s.db.users[u.Owner] = u
	return nil
}

func (s *memUsers) Update(_ context.Context, u domain.UserStats) error {
	if _, ok := s.db.users[u.Owner]; !ok {
		return domain.ErrNotFound
	}
	s.db.users[u.Owner] = u
	return nil
}

func (s *memUsers) GetByOwner(_ context.Context, owner string) (domain.UserStats, error) {
	u, ok := s.db.users[owner]
	if !ok {
		return domain.UserStats{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *memUsers) ListTop(_ context.Context, _ int) ([]domain.UserStats, error) {
	var out []domain.UserStats
	for _, u := range s.db.users {
		out = append(out, u)
	}
	return out, nil
}

type memListings struct{ db *memDB }

func (s *memListings) Create(_ context.Context, l domain.Listing) error {
	if _, ok := s.db.listings[l.CardID]; ok {
		return domain.ErrAlreadyExists
	}
	s.db.listings[l.CardID] = l
	return nil
}

func (s *memListings) GetByCard(_ context.Context, cardID string) (domain.Listing, error) {
	l, ok := s.db.listings[cardID]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (s *memListings) Delete(_ context.Context, cardID string) error {
	if _, ok := s.db.listings[cardID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.db.listings, cardID)
	return nil
}

func (s *memListings) List(_ context.Context, _ domain.ListOpts) ([]domain.Listing, error) {
	var out []domain.Listing
	for _, l := range s.db.listings {
		out = append(out, l)
	}
	return out, nil
}

type memAuctions struct{ db *memDB }

func (s *memAuctions) Create(_ context.Context, a domain.Auction) error {
	if _, ok := s.db.auctions[a.CardID]; ok {
		return domain.ErrAlreadyExists
	}
	s.db.auctions[a.CardID] = a
	return nil
}

func (s *memAuctions) UpdateBid(_ context.Context, cardID string, bid uint64, bidder string) error {
	a, ok := s.db.auctions[cardID]
	if !ok {
		return domain.ErrNotFound
	}
	a.CurrentBid = &bid
	a.CurrentBidder = &bidder
	s.db.auctions[cardID] = a
	return nil
}

func (s *memAuctions) GetByCard(_ context.Context, cardID string) (domain.Auction, error) {
	a, ok := s.db.auctions[cardID]
	if !ok {
		return domain.Auction{}, domain.ErrNotFound
	}
	return a, nil
}

func (s *memAuctions) Delete(_ context.Context, cardID string) error {
	if _, ok := s.db.auctions[cardID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.db.auctions, cardID)
	return nil
}

func (s *memAuctions) ListActive(_ context.Context, _ domain.ListOpts) ([]domain.Auction, error) {
	var out []domain.Auction
	for _, a := range s.db.auctions {
		out = append(out, a)
	}
	return out, nil
}

func (s *memAuctions) ListEnded(_ context.Context, now time.Time, _ int) ([]domain.Auction, error) {
	var out []domain.Auction
	for _, a := range s.db.auctions {
		if a.Ended(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memMarketplace struct{ db *memDB }

func (s *memMarketplace) Init(_ context.Context, m domain.Marketplace) error {
	if s.db.marketplace != nil {
		return domain.ErrAlreadyExists
	}
	s.db.marketplace = &m
	return nil
}

func (s *memMarketplace) Get(_ context.Context) (domain.Marketplace, error) {
	if s.db.marketplace == nil {
		return domain.Marketplace{}, domain.ErrNotFound
	}
	return *s.db.marketplace, nil
}

func (s *memMarketplace) RecordSaleTotals(_ context.Context, price uint64) error {
	if s.db.marketplace == nil {
		return domain.ErrNotFound
	}
	s.db.marketplace.TotalVolume += price
	s.db.marketplace.TotalSales++
	return nil
}

type memCollections struct{ db *memDB }

func (s *memCollections) Create(_ context.Context, c domain.Collection) error {
	if _, ok := s.db.collections[c.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.db.collections[c.ID] = c
	return nil
}

func (s *memCollections) GetByID(_ context.Context, id string) (domain.Collection, error) {
	c, ok := s.db.collections[id]
	if !ok {
		return domain.Collection{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *memCollections) IncrementTotal(_ context.Context, id string) error {
	c, ok := s.db.collections[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.TotalCards++
	s.db.collections[id] = c
	return nil
}

func (s *memCollections) List(_ context.Context, _ domain.ListOpts) ([]domain.Collection, error) {
	var out []domain.Collection
	for _, c := range s.db.collections {
		out = append(out, c)
	}
	return out, nil
}

type memSales struct{ db *memDB }

func (s *memSales) Insert(_ context.Context, sale domain.Sale) error {
	s.db.sales = append(s.db.sales, sale)
	return nil
}

func (s *memSales) ListByCard(_ context.Context, cardID string, _ domain.ListOpts) ([]domain.Sale, error) {
	var out []domain.Sale
	for _, sale := range s.db.sales {
		if sale.CardID == cardID {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *memSales) ListRecent(_ context.Context, _ int) ([]domain.Sale, error) {
	return append([]domain.Sale(nil), s.db.sales...), nil
}

func (s *memSales) ListBefore(_ context.Context, before time.Time, _ int) ([]domain.Sale, error) {
	var out []domain.Sale
	for _, sale := range s.db.sales {
		if sale.ExecutedAt.Before(before) {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *memSales) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []domain.Sale
	var n int64
	for _, sale := range s.db.sales {
		if sale.ExecutedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, sale)
	}
	s.db.sales = kept
	return n, nil
}

type memChests struct{ db *memDB }

func (s *memChests) Insert(_ context.Context, g domain.ChestGrant) error {
	s.db.chests = append(s.db.chests, g)
	return nil
}

func (s *memChests) ListByOwner(_ context.Context, owner string, _ domain.ListOpts) ([]domain.ChestGrant, error) {
	var out []domain.ChestGrant
	for _, g := range s.db.chests {
		if g.Owner == owner {
			out = append(out, g)
		}
	}
	return out, nil
}

type memAudit struct{ db *memDB }

func (s *memAudit) Log(_ context.Context, event string, detail map[string]any) error {
	s.db.audit = append(s.db.audit, domain.AuditEntry{
		ID:     int64(len(s.db.audit) + 1),
		Event:  event,
		Detail: detail,
	})
	return nil
}

func (s *memAudit) List(_ context.Context, _ domain.ListOpts) ([]domain.AuditEntry, error) {
	return append([]domain.AuditEntry(nil), s.db.audit...), nil
}

func (s *memAudit) ListBefore(_ context.Context, _ time.Time, _ int) ([]domain.AuditEntry, error) {
	return append([]domain.AuditEntry(nil), s.db.audit...), nil
}

func (s *memAudit) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	n := int64(len(s.db.audit))
	s.db.audit = nil
	return n, nil
}

type memLedger struct{ db *memDB }

func (l *memLedger) CreateUnit(_ context.Context, tokenID, account string) error {
	if _, ok := l.db.holders[tokenID]; ok {
		return domain.ErrAlreadyExists
	}
	l.db.holders[tokenID] = account
	return nil
}

func (l *memLedger) Holder(_ context.Context, tokenID string) (string, error) {
	h, ok := l.db.holders[tokenID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return h, nil
}

func (l *memLedger) TransferUnit(_ context.Context, tokenID, from, to string) error {
	h, ok := l.db.holders[tokenID]
	if !ok {
		return domain.ErrNotFound
	}
	if h != from {
		return domain.ErrUnauthorized
	}
	l.db.holders[tokenID] = to
	return nil
}

type memLocks struct{}

func (memLocks) Acquire(_ context.Context, _ string, _ time.Duration) (func(), error) {
	return func() {}, nil
}

type memBus struct {
	events []string
}

func (b *memBus) Publish(_ context.Context, _ string, payload []byte) error {
	b.events = append(b.events, string(payload))
	return nil
}

func (b *memBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type memCache struct{}

func (memCache) Set(_ context.Context, _ domain.Card) error           { return nil }
func (memCache) Get(_ context.Context, _ string) (domain.Card, error) { return domain.Card{}, domain.ErrNotFound }
func (memCache) Invalidate(_ context.Context, _ string) error         { return nil }

// testEnv bundles the fixtures every service test starts from.
type testEnv struct {
	db    *memDB
	tx    *memTx
	bus   *memBus
	clock time.Time
}

func newTestEnv() *testEnv {
	db := newMemDB()
	return &testEnv{
		db:    db,
		tx:    &memTx{db: db},
		bus:   &memBus{},
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (e *testEnv) now() time.Time {
	return e.clock
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedUser registers a stats record directly in the fake.
func (e *testEnv) seedUser(owner string) {
	e.db.users[owner] = domain.UserStats{Owner: owner, Level: 1, CreatedAt: e.clock, LastActivity: e.clock}
}

// seedCard registers a card and its ledger unit directly in the fake.
func (e *testEnv) seedCard(id, owner string, rarity domain.Rarity) domain.Card {
	attack, defense, health := rarity.BaseStats()
	c := domain.Card{
		ID: id, Owner: owner, Name: "test card",
		Rarity: rarity, Element: domain.ElementFire,
		Attack: attack, Defense: defense, Health: health,
		Level: 1, CreatedAt: e.clock, LastUpdated: e.clock,
	}
	e.db.cards[id] = c
	e.db.holders[id] = owner
	if u, ok := e.db.users[owner]; ok {
		u.CardsOwned++
		e.db.users[owner] = u
	}
	return c
}

func (e *testEnv) seedMarketplace(authority string, feeBps uint16) {
	e.db.marketplace = &domain.Marketplace{Authority: authority, FeeBps: feeBps, CreatedAt: e.clock}
}
