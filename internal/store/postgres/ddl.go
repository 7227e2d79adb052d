package postgres

// schemaDDL is applied idempotently by Bootstrap. The partial index on
// fcm_token keeps the stale-token value scan cheap without enforcing
// uniqueness (duplicate tokens are tolerated and repaired in bulk).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS pets (
    pet_id          UUID PRIMARY KEY,
    owner_id        TEXT NOT NULL,
    owner_name      TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL CHECK (status IN ('lost','found')),
    animal_type     TEXT NOT NULL DEFAULT '',
    size            TEXT NOT NULL DEFAULT '',
    image_url       TEXT NOT NULL,
    face_id         TEXT,
    characteristics JSONB NOT NULL DEFAULT '[]',
    colors          JSONB NOT NULL DEFAULT '[]',
    latitude        DOUBLE PRECISION,
    longitude       DOUBLE PRECISION,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pets_status_created ON pets (status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_pets_owner ON pets (owner_id);

CREATE TABLE IF NOT EXISTS users (
    user_id    TEXT PRIMARY KEY,
    full_name  TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    phone      TEXT,
    fcm_token  TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_users_fcm_token ON users (fcm_token) WHERE fcm_token IS NOT NULL;
`
