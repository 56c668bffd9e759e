package database

// Serverless schema. D1 is SQLite underneath, so the DDL uses SQLite types
// and AUTOINCREMENT primary keys. The conventional backend builds its schema
// from the model structs instead; keep the two in sync when adding columns.

// MemberIDStart is the first public membership number handed out.
const MemberIDStart = 1000

var dropTableStatements = []string{
	"DROP TABLE IF EXISTS daily_cards",
	"DROP TABLE IF EXISTS users",
	"DROP TABLE IF EXISTS halqas",
	"DROP TABLE IF EXISTS site_settings",
}

var createTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_id INTEGER UNIQUE,
		full_name TEXT NOT NULL,
		gender TEXT,
		age INTEGER,
		phone TEXT,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		country TEXT,
		referral_source TEXT,
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'active', 'rejected', 'withdrawn')),
		role TEXT NOT NULL DEFAULT 'participant' CHECK(role IN ('participant', 'supervisor', 'super_admin')),
		rejection_note TEXT,
		halqa_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (halqa_id) REFERENCES halqas(id)
	)`,
	`CREATE TABLE IF NOT EXISTS halqas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL CHECK(length(trim(name)) > 0),
		supervisor_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (supervisor_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date DATE NOT NULL,
		quran REAL DEFAULT 0,
		tadabbur REAL DEFAULT 0,
		duas REAL DEFAULT 0,
		taraweeh REAL DEFAULT 0,
		tahajjud REAL DEFAULT 0,
		duha REAL DEFAULT 0,
		rawatib REAL DEFAULT 0,
		main_lesson REAL DEFAULT 0,
		required_lesson REAL DEFAULT 0,
		enrichment_lesson REAL DEFAULT 0,
		charity_worship REAL DEFAULT 0,
		extra_work REAL DEFAULT 0,
		extra_work_description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id),
		UNIQUE(user_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS site_settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		enable_email_notifications INTEGER DEFAULT 1
	)`,
}

var createIndexStatements = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
	"CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)",
	"CREATE INDEX IF NOT EXISTS idx_users_halqa_id ON users(halqa_id)",
	"CREATE INDEX IF NOT EXISTS idx_daily_cards_user_id ON daily_cards(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_daily_cards_date ON daily_cards(date)",
	"CREATE INDEX IF NOT EXISTS idx_halqas_supervisor_id ON halqas(supervisor_id)",
}
