package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-svc/models"
	"storefront-svc/repository"

	"github.com/google/uuid"
)

// memDB is an in-memory stand-in for Postgres. A transaction holds the mutex
// for its whole duration, which gives the same serialization per product that
// row locks give, and restores a snapshot when it fails.
type memDB struct {
	mu         sync.Mutex
	categories []models.Category
	products   map[int64]models.Product
	cart       map[string][]models.CartLine
	orders     map[uuid.UUID]models.Order
	nextLineID int64
	nextItemID int64
}

func newMemDB() *memDB {
	return &memDB{
		products: map[int64]models.Product{},
		cart:     map[string][]models.CartLine{},
		orders:   map[uuid.UUID]models.Order{},
	}
}

func (db *memDB) putProduct(p models.Product) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[p.ID] = p
}

func (db *memDB) stock(id int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.products[id].Quantity
}

func (db *memDB) orderCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.orders)
}

func (db *memDB) cartLen(owner models.Owner) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.cart[owner.Key()])
}

func (db *memDB) snapshot() func() {
	products := make(map[int64]models.Product, len(db.products))
	for k, v := range db.products {
		products[k] = v
	}
	cart := make(map[string][]models.CartLine, len(db.cart))
	for k, v := range db.cart {
		cart[k] = append([]models.CartLine(nil), v...)
	}
	orders := make(map[uuid.UUID]models.Order, len(db.orders))
	for k, v := range db.orders {
		orders[k] = v
	}
	return func() {
		db.products = products
		db.cart = cart
		db.orders = orders
	}
}

func (db *memDB) addLine(owner models.Owner, productID int64, quantity int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.addLineLocked(owner, productID, quantity)
}

func (db *memDB) addLineLocked(owner models.Owner, productID int64, quantity int) {
	key := owner.Key()
	for i, l := range db.cart[key] {
		if l.ProductID == productID {
			db.cart[key][i].Quantity += quantity
			return
		}
	}
	db.nextLineID++
	db.cart[key] = append(db.cart[key], models.CartLine{
		ID:        db.nextLineID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
	})
}

func (db *memDB) joinedLines(key string) []models.CartLine {
	lines := make([]models.CartLine, 0, len(db.cart[key]))
	for _, l := range db.cart[key] {
		l.Product = db.products[l.ProductID]
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines
}

type memProducts struct{ db *memDB }

func (r memProducts) Get(_ context.Context, id int64) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r memProducts) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memProducts) List(_ context.Context, filter models.CatalogFilter, categoryID *int64) ([]models.Product, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var all []models.Product
	for _, p := range r.db.products {
		if categoryID != nil && p.CategoryID != *categoryID {
			continue
		}
		if filter.OnSale && !p.Discount.IsPositive() {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Query)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := (filter.Page - 1) * filter.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r memProducts) Related(_ context.Context, product models.Product, limit int) ([]models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	related := []models.Product{}
	for _, p := range r.db.products {
		if p.CategoryID == product.CategoryID && p.ID != product.ID && len(related) < limit {
			related = append(related, p)
		}
	}
	return related, nil
}

func (r memProducts) Categories(_ context.Context) ([]models.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.Category{}, r.db.categories...), nil
}

func (r memProducts) CategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memProducts) StockLevels(_ context.Context, ids []int64) (map[int64]models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stock := map[int64]models.Product{}
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok {
			stock[id] = p
		}
	}
	return stock, nil
}

type memCarts struct{ db *memDB }

func (r memCarts) List(_ context.Context, owner models.Owner) ([]models.CartLine, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.joinedLines(owner.Key()), nil
}

func (r memCarts) Add(_ context.Context, owner models.Owner, productID int64, quantity int) error {
	r.db.addLine(owner, productID, quantity)
	return nil
}

func (r memCarts) Get(_ context.Context, owner models.Owner, lineID int64) (*models.CartLine, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.joinedLines(owner.Key()) {
		if l.ID == lineID {
			return &l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memCarts) SetQuantity(_ context.Context, owner models.Owner, lineID int64, quantity int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	lines := r.db.cart[owner.Key()]
	for i := range lines {
		if lines[i].ID == lineID {
			lines[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r memCarts) Delete(_ context.Context, owner models.Owner, lineID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := owner.Key()
	for i, l := range r.db.cart[key] {
		if l.ID == lineID {
			r.db.cart[key] = append(r.db.cart[key][:i], r.db.cart[key][i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memOrders struct{ db *memDB }

func (s memOrders) WithinTx(_ context.Context, fn func(tx repository.OrderTx) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	restore := s.db.snapshot()
	if err := fn(memTx{db: s.db}); err != nil {
		restore()
		return err
	}
	return nil
}

func (s memOrders) FindOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

type memTx struct{ db *memDB }

func (t memTx) LockCartLines(_ context.Context, owner models.Owner) ([]models.CartLine, error) {
	return t.db.joinedLines(owner.Key()), nil
}

func (t memTx) CreateOrder(_ context.Context, order *models.Order) error {
	order.CreatedAt = time.Now()
	t.db.orders[order.ID] = *order
	return nil
}

func (t memTx) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	t.db.nextItemID++
	item.ID = t.db.nextItemID
	o := t.db.orders[item.OrderID]
	o.Items = append(o.Items, *item)
	t.db.orders[item.OrderID] = o
	return nil
}

func (t memTx) DecrementStock(_ context.Context, productID int64, quantity int) (bool, error) {
	p, ok := t.db.products[productID]
	if !ok || p.Quantity < quantity {
		return false, nil
	}
	p.Quantity -= quantity
	t.db.products[productID] = p
	return true, nil
}

func (t memTx) ClearCart(_ context.Context, owner models.Owner) (int64, error) {
	n := int64(len(t.db.cart[owner.Key()]))
	delete(t.db.cart, owner.Key())
	return n, nil
}
