// Package main implements a standalone seed script that populates the store
// database with realistic test data: categories, products, an admin account,
// a shopper account, and a handful of placed orders with their line items.
// It writes direct SQL so it can run before the server has ever started.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dsn() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("POSTGRES_USER", "eshop"),
		getEnv("POSTGRES_PASSWORD", "eshop_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "eshop_db"),
		getEnv("POSTGRES_SSL_MODE", "disable"),
	)
}

type category struct {
	id    string
	name  string
	icon  string
	color string
}

type product struct {
	id         string
	name       string
	brand      string
	price      int64
	categoryID string
	stock      int
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn())
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}

	categories := seedCategories(ctx, pool)
	products := seedProducts(ctx, pool, categories)
	adminID, shopperID := seedUsers(ctx, pool)
	seedOrders(ctx, pool, products, shopperID)

	log.Printf("seed complete: %d categories, %d products, admin=%s shopper=%s",
		len(categories), len(products), adminID, shopperID)
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) []category {
	categories := []category{
		{id: uuid.NewString(), name: "Shirts", icon: "shirt", color: "#cc3333"},
		{id: uuid.NewString(), name: "Shoes", icon: "shoe", color: "#3333cc"},
		{id: uuid.NewString(), name: "Electronics", icon: "plug", color: "#33cc33"},
		{id: uuid.NewString(), name: "Books", icon: "book", color: "#cccc33"},
	}

	for _, c := range categories {
		_, err := pool.Exec(ctx, `
			INSERT INTO categories (id, name, icon, color, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (name) DO NOTHING`,
			c.id, c.name, c.icon, c.color,
		)
		if err != nil {
			log.Fatalf("insert category %s: %v", c.name, err)
		}
	}
	log.Printf("seeded %d categories", len(categories))
	return categories
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, categories []category) []product {
	names := []struct {
		name  string
		brand string
		price int64
	}{
		{"Red Cotton Shirt", "Acme", 1999},
		{"Linen Summer Shirt", "Acme", 2499},
		{"Trail Running Shoes", "Strider", 8999},
		{"Leather Boots", "Strider", 12999},
		{"Wireless Earbuds", "Soundbox", 5999},
		{"Mechanical Keyboard", "Keysmith", 10999},
		{"Go In Practice", "Inkwell", 3499},
		{"Distributed Systems Primer", "Inkwell", 4299},
	}

	products := make([]product, 0, len(names))
	for i, n := range names {
		p := product{
			id:         uuid.NewString(),
			name:       n.name,
			brand:      n.brand,
			price:      n.price,
			categoryID: categories[i%len(categories)].id,
			stock:      10 + rand.Intn(90),
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO products (
				id, name, description, rich_description, image, images, brand,
				price, category_id, count_in_stock, rating, num_reviews,
				is_featured, date_created, updated_at
			) VALUES ($1, $2, $3, '', '', '{}', $4, $5, $6, $7, $8, $9, $10, now(), now())`,
			p.id, p.name, "Seeded product: "+p.name, p.brand, p.price,
			p.categoryID, p.stock, float64(rand.Intn(50))/10, rand.Intn(200), i%3 == 0,
		)
		if err != nil {
			log.Fatalf("insert product %s: %v", p.name, err)
		}
		products = append(products, p)
	}
	log.Printf("seeded %d products", len(products))
	return products
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) (adminID, shopperID string) {
	adminID = uuid.NewString()
	shopperID = uuid.NewString()

	insert := func(id, name, email, password string, isAdmin bool) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO users (
				id, name, email, password_hash, phone, is_admin,
				street, apartment, zip, city, country, created_at
			) VALUES ($1, $2, $3, $4, '', $5, '', '', '', '', '', now())
			ON CONFLICT (email) DO NOTHING`,
			id, name, email, string(hash), isAdmin,
		)
		if err != nil {
			log.Fatalf("insert user %s: %v", email, err)
		}
	}

	insert(adminID, "Store Admin", "admin@eshop.local", getEnv("SEED_ADMIN_PASSWORD", "admin-password"), true)
	insert(shopperID, "Sample Shopper", "shopper@eshop.local", getEnv("SEED_SHOPPER_PASSWORD", "shopper-password"), false)
	log.Printf("seeded admin and shopper accounts")
	return adminID, shopperID
}

func seedOrders(ctx context.Context, pool *pgxpool.Pool, products []product, userID string) {
	for i := 0; i < 5; i++ {
		// Line items are written first and commit independently; the order
		// row references them by ID.
		count := 1 + rand.Intn(3)
		itemIDs := make([]string, 0, count)
		var total int64
		for j := 0; j < count; j++ {
			p := products[rand.Intn(len(products))]
			qty := 1 + rand.Intn(4)
			itemID := uuid.NewString()
			_, err := pool.Exec(ctx, `
				INSERT INTO line_items (id, product_id, quantity, created_at)
				VALUES ($1, $2, $3, now())`,
				itemID, p.id, qty,
			)
			if err != nil {
				log.Fatalf("insert line item: %v", err)
			}
			itemIDs = append(itemIDs, itemID)
			total += p.price * int64(qty)
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO orders (
				id, line_item_ids, shipping_address1, shipping_address2, city,
				zip, country, phone, status, total_price, user_id, date_ordered
			) VALUES ($1, $2, $3, '', $4, $5, $6, $7, 'pending', $8, $9, now())`,
			uuid.NewString(), itemIDs, fmt.Sprintf("%d Example Street", 100+i),
			"Springfield", "62704", "US", "+15555550100", total, userID,
		)
		if err != nil {
			log.Fatalf("insert order: %v", err)
		}
	}
	log.Printf("seeded 5 orders")
}
