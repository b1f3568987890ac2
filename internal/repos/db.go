package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog data if the DB is empty (idempotent).
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure demo users exist (idempotent; safe to run every start).
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Product catalog. This is the durable "cache" tier: external fetches
-- exist to grow it, rows are never deleted by the resolution pipeline.
CREATE TABLE IF NOT EXISTS products(
  id TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT 'cache',
  title TEXT NOT NULL,
  description TEXT DEFAULT '',
  category TEXT NOT NULL,
  gender TEXT NOT NULL DEFAULT 'unisex' CHECK (gender IN ('women','men','kids','unisex')),
  color TEXT DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  rating NUMERIC NOT NULL DEFAULT 4.0,
  image_url TEXT DEFAULT '',
  product_url TEXT DEFAULT '',
  content_hash TEXT DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id, source)
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(LOWER(category));
CREATE INDEX IF NOT EXISTS idx_products_gender   ON products(gender);
CREATE INDEX IF NOT EXISTS idx_products_price    ON products(price);
CREATE INDEX IF NOT EXISTS idx_products_hash     ON products(content_hash);

-- One row per (source, calendar month); the monthly call ceiling for the
-- paid marketplace API is enforced against request_count.
CREATE TABLE IF NOT EXISTS api_quota(
  source_name TEXT NOT NULL,
  month_key TEXT NOT NULL,
  request_count INTEGER NOT NULL DEFAULT 0 CHECK (request_count >= 0),
  last_request_at TEXT,
  PRIMARY KEY (source_name, month_key)
);

-- Chat history fallback store (Redis is preferred when configured).
CREATE TABLE IF NOT EXISTS conversation_messages(
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('user','assistant')),
  content TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_conv_session ON conversation_messages(session_id, created_at);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo catalog")

	// The Women's categories deliberately keep the typographic apostrophe
	// the upstream data arrived with; the matcher handles both forms.
	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,source,title,description,category,gender,color,price,rating,image_url) VALUES
	  ('sk-shirt-001','cache','Blue Slim Fit Formal Shirt','Cotton full-sleeve formal shirt for men','Shirts','men','blue',899,4.2,'/media/sk-shirt-001.jpg'),
	  ('sk-shirt-002','cache','White Oxford Casual Shirt','Button-down casual shirt','Shirts','men','white',1099,4.4,'/media/sk-shirt-002.jpg'),
	  ('sk-tshirt-001','cache','Black Graphic Printed T-shirt','Round neck cotton tee','T-shirts','men','black',499,4.1,'/media/sk-tshirt-001.jpg'),
	  ('sk-tshirt-002','cache','Pink Crop T-shirt for Women','Relaxed fit crop tee','T-shirts','women','pink',599,4.3,'/media/sk-tshirt-002.jpg'),
	  ('sk-jeans-001','cache','Dark Blue Stretch Jeans','Mid-rise slim jeans for men','Jeans','men','blue',1499,4.5,'/media/sk-jeans-001.jpg'),
	  ('sk-dress-001','cache','Red Floral Midi Dress','A-line midi dress for women','Dresses','women','red',1899,4.6,'/media/sk-dress-001.jpg'),
	  ('sk-kurta-001','cache','Yellow Anarkali Kurti','Festive rayon kurti for women','Kurtas','women','yellow',1299,4.4,'/media/sk-kurta-001.jpg'),
	  ('sk-saree-001','cache','Maroon Banarasi Silk Saree','Woven saree with blouse piece','Sarees','women','maroon',2999,4.7,'/media/sk-saree-001.jpg'),
	  ('sk-wbot-001','cache','Black Ankle-Length Leggings','Stretch cotton leggings','Women’s Bottomwear','women','black',449,4.2,'/media/sk-wbot-001.jpg'),
	  ('sk-bot-001','cache','Olive Cargo Trousers','Relaxed cargo bottoms','Bottom Wear','men','green',1399,4.0,'/media/sk-bot-001.jpg'),
	  ('sk-jack-001','cache','Grey Zip-Front Hoodie','Fleece hoodie for winter','Jackets','unisex','grey',1199,4.3,'/media/sk-jack-001.jpg'),
	  ('sk-kids-001','cache','Kids Dinosaur Print T-shirt','Soft cotton tee for kids','T-shirts','kids','green',349,4.5,'/media/sk-kids-001.jpg')`)

	return tx.Commit()
}

// seedUsers ensures one USER and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-priya", "priya@stitchkart.test", "Priya", "USER", "Passw0rd!"),
		mk("u-admin", "admin@stitchkart.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
