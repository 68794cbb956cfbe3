package cmd

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo customer and a starter catalog for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			clearTables(db)
		}

		seedCustomers(db)
		seedProducts(db)
	},
}

func clearTables(db *sqlx.DB) {
	// Child tables first so foreign keys don't complain.
	tables := []string{
		"cart_items",
		"carts",
		"payment_transactions",
		"order_items",
		"orders",
		"products",
		"customers",
	}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			log.Fatalf("failed to clear table %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}

func seedCustomers(db *sqlx.DB) {
	password := "password"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	customers := []struct {
		Email string
		Name  string
		Phone string
	}{
		{"linh@mail.com", "Linh Tran", "+84901234567"},
		{"minh@mail.com", "Minh Nguyen", "+84907654321"},
	}

	for _, c := range customers {
		var exists int
		if err := db.QueryRow("SELECT 1 FROM customers WHERE email = $1", c.Email).Scan(&exists); err == nil {
			fmt.Println("customer already exists:", c.Email)
			continue
		}

		_, err := db.Exec(
			"INSERT INTO customers (email, name, phone, password_hash, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, true, now(), now())",
			c.Email, c.Name, c.Phone, string(hash),
		)
		if err != nil {
			log.Fatalf("failed to insert customer %s: %v", c.Email, err)
		}
		fmt.Println("Seeded customer:", c.Email)
	}
}

func seedProducts(db *sqlx.DB) {
	// Prices are in VND.
	products := []struct {
		Title    string
		Category string
		Desc     string
		Barcode  string
		Price    int64
		Stock    int
	}{
		{"Nhà Giả Kim", "book", "Tiểu thuyết của Paulo Coelho, bản dịch tiếng Việt", "8935086838126", 79000, 120},
		{"Dế Mèn Phiêu Lưu Ký", "book", "Tô Hoài, ấn bản kỷ niệm có minh họa", "8934974170617", 65000, 80},
		{"Clean Architecture", "book", "Robert C. Martin on software structure and design", "9780134494166", 450000, 35},
		{"The Pragmatic Programmer", "book", "20th anniversary edition, Hunt and Thomas", "9780135957059", 520000, 25},
		{"Hà Nội Mười Mùa Hoa", "cd", "Tuyển tập nhạc trữ tình về Hà Nội", "0888751234562", 150000, 60},
		{"Trịnh Công Sơn - Tuyển Tập", "cd", "Những bản tình ca bất hủ", "0888751234579", 180000, 45},
		{"Abbey Road (Remastered)", "cd", "The Beatles, 2019 remaster", "0602577915127", 350000, 30},
		{"Mắt Biếc", "dvd", "Phim điện ảnh chuyển thể từ truyện Nguyễn Nhật Ánh", "8936071673217", 220000, 50},
		{"Spirited Away", "dvd", "Studio Ghibli, phụ đề tiếng Việt", "4959241981049", 280000, 40},
		{"The Godfather Trilogy", "dvd", "Coppola's trilogy, box set", "0097360719745", 550000, 15},
	}

	for _, p := range products {
		var exists int
		if err := db.QueryRow("SELECT 1 FROM products WHERE barcode = $1", p.Barcode).Scan(&exists); err == nil {
			continue
		}

		_, err := db.Exec(
			"INSERT INTO products (title, category, description, barcode, price, stock, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())",
			p.Title, p.Category, p.Desc, p.Barcode, p.Price, p.Stock,
		)
		if err != nil {
			log.Fatalf("failed to insert product %s: %v", p.Title, err)
		}
		fmt.Printf("Seeded product: %s (%s)\n", p.Title, p.Category)
	}

	fmt.Println("Catalog seeded successfully")
}
