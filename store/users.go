package store

import "time"

// Role constants for station users.
const (
	RoleAdmin   = "admin"
	RoleShipper = "shipper"
)

// User is a station operator. Admins reach imports and reporting,
// shippers reach the scanning surface.
type User struct {
	ID           int64     `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (db *DB) GetUser(username string) (*User, error) {
	u := &User{}
	var createdAt string
	err := db.QueryRow(`SELECT user_id, username, password_hash, role, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &createdAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = scanTime(createdAt)
	return u, nil
}

func (db *DB) GetUserByID(id int64) (*User, error) {
	u := &User{}
	var createdAt string
	err := db.QueryRow(`SELECT user_id, username, password_hash, role, created_at FROM users WHERE user_id = ?`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &createdAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = scanTime(createdAt)
	return u, nil
}

func (db *DB) ListUsers() ([]User, error) {
	rows, err := db.Query(`SELECT user_id, username, password_hash, role, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt = scanTime(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) CreateUser(username, passwordHash, role string) (int64, error) {
	res, err := db.Exec(`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`, username, passwordHash, role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) UpdateUserPassword(username, passwordHash string) error {
	_, err := db.Exec(`UPDATE users SET password_hash = ? WHERE username = ?`, passwordHash, username)
	return err
}

func (db *DB) DeleteUser(id int64) error {
	_, err := db.Exec(`DELETE FROM users WHERE user_id = ?`, id)
	return err
}

func (db *DB) UserExists() (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count > 0, err
}
