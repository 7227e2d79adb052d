package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/reunipet/reunipet/internal/model"
	"github.com/reunipet/reunipet/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Pets() store.Pets   { return &pets{db: s.db} }
func (s *pgStore) Users() store.Users { return &users{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap ensures the schema exists and Postgres is reachable.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil // No DSN configured, skip bootstrap
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// --- Pets ---
type pets struct{ db *sql.DB }

func (p *pets) Create(ctx context.Context, m *model.PetRecord) (*model.PetRecord, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	chars, err := json.Marshal(emptyIfNil(m.Characteristics))
	if err != nil {
		return nil, err
	}
	colors, err := json.Marshal(emptyIfNil(m.Colors))
	if err != nil {
		return nil, err
	}
	var lat, lon *float64
	if m.Location != nil {
		lat, lon = &m.Location.Latitude, &m.Location.Longitude
	}

	var created time.Time
	row := p.db.QueryRowContext(ctx, `
        INSERT INTO pets (pet_id, owner_id, owner_name, name, description, status,
                          animal_type, size, image_url, characteristics, colors, latitude, longitude)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING created_at
    `, id, m.OwnerID, m.OwnerName, m.Name, m.Description, m.Status,
		m.AnimalType, m.Size, m.ImageURL, chars, colors, lat, lon)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = created
	return &out, nil
}

const petColumns = `pet_id, owner_id, owner_name, name, description, status,
        animal_type, size, image_url, face_id, characteristics, colors, latitude, longitude, created_at`

func (p *pets) Get(ctx context.Context, id string) (*model.PetRecord, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE pet_id=$1`, id)
	out, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

// SetFaceID writes only the face_id column so concurrent writers of other
// fields are never clobbered.
func (p *pets) SetFaceID(ctx context.Context, id, faceID string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE pets SET face_id=$2 WHERE pet_id=$1`, id, faceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (p *pets) List(ctx context.Context, req model.ListPetsRequest) ([]*model.PetRecord, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.Status != "" {
		conds = append(conds, "status = "+arg(req.Status))
	}
	if req.AnimalType != "" {
		conds = append(conds, "animal_type = "+arg(req.AnimalType))
	}
	if req.Size != "" {
		conds = append(conds, "size = "+arg(req.Size))
	}
	if len(req.Characteristics) > 0 {
		conds = append(conds, "characteristics ?| "+arg(req.Characteristics)+"::text[]")
	}
	if len(req.Colors) > 0 {
		conds = append(conds, "colors ?| "+arg(req.Colors)+"::text[]")
	}
	if req.CreatedBefore != nil {
		conds = append(conds, "created_at < "+arg(*req.CreatedBefore))
	}

	q := `SELECT ` + petColumns + ` FROM pets`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PetRecord
	for rows.Next() {
		rec, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *pets) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM pets WHERE pet_id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteBatch removes all given records in one statement; the delete is atomic.
func (p *pets) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := p.db.ExecContext(ctx, `DELETE FROM pets WHERE pet_id = ANY($1::uuid[])`, ids)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanPet(r rowScanner) (*model.PetRecord, error) {
	var (
		out        model.PetRecord
		rawChars   []byte
		rawColors  []byte
		lat, lon   *float64
	)
	if err := r.Scan(&out.ID, &out.OwnerID, &out.OwnerName, &out.Name, &out.Description, &out.Status,
		&out.AnimalType, &out.Size, &out.ImageURL, &out.FaceID, &rawChars, &rawColors, &lat, &lon, &out.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawChars, &out.Characteristics); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawColors, &out.Colors); err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		out.Location = &model.Location{Latitude: *lat, Longitude: *lon}
	}
	return &out, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// --- Users ---
type users struct{ db *sql.DB }

// Upsert creates the profile or merges non-empty fields into an existing one.
func (u *users) Upsert(ctx context.Context, m *model.UserProfile) error {
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, full_name, email, phone, fcm_token)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id) DO UPDATE SET
            full_name = COALESCE(NULLIF(EXCLUDED.full_name,''), users.full_name),
            email     = COALESCE(NULLIF(EXCLUDED.email,''), users.email),
            phone     = COALESCE(EXCLUDED.phone, users.phone),
            fcm_token = COALESCE(EXCLUDED.fcm_token, users.fcm_token)
    `, m.UserID, m.FullName, m.Email, m.Phone, m.FCMToken)
	return err
}

func (u *users) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	var out model.UserProfile
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, full_name, email, phone, fcm_token, created_at
        FROM users WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.FullName, &out.Email, &out.Phone, &out.FCMToken, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Update applies only the fields present in upd; it fails with ErrNotFound if
// the profile does not exist.
func (u *users) Update(ctx context.Context, userID string, upd model.UserProfileUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if upd.FullName != nil {
		sets = append(sets, "full_name = "+arg(*upd.FullName))
	}
	if upd.Phone != nil {
		sets = append(sets, "phone = "+arg(*upd.Phone))
	}
	if upd.FCMToken != nil {
		sets = append(sets, "fcm_token = "+arg(*upd.FCMToken))
	}
	if len(sets) == 0 {
		return nil
	}
	q := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE user_id = " + arg(userID)
	res, err := u.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ClearPushToken nulls the token on every profile holding it. Tokens are
// expected unique per device, but the scan is defensive against duplicates.
func (u *users) ClearPushToken(ctx context.Context, token string) (int, error) {
	res, err := u.db.ExecContext(ctx, `UPDATE users SET fcm_token=NULL WHERE fcm_token=$1`, token)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
