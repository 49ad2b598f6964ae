package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rooms (
    room_id              TEXT PRIMARY KEY,
    floor                TEXT NOT NULL DEFAULT '',
    category             TEXT NOT NULL DEFAULT '',
    sqm                  REAL,
    weekly_rate          REAL,
    monday_id            TEXT
);

CREATE TABLE IF NOT EXISTS contracts (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    monday_id            TEXT,
    room_id              TEXT NOT NULL,
    resident_name        TEXT NOT NULL,
    start_date           TEXT NOT NULL,
    end_date             TEXT NOT NULL,
    signed_date          TEXT,
    weekly_rate          REAL,
    total_value          REAL,
    weeks_booked         REAL,
    payment_plan         TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'active',
    nationality          TEXT,
    university           TEXT,
    source               TEXT,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payment_schedule (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    contract_id          INTEGER NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
    due_date             TEXT NOT NULL,
    amount               REAL NOT NULL,
    payment_type         TEXT NOT NULL DEFAULT 'rent',
    status               TEXT NOT NULL DEFAULT 'pending',
    paid_date            TEXT,
    paid_amount          REAL
);

CREATE TABLE IF NOT EXISTS opex_budget (
    month                TEXT NOT NULL,
    category             TEXT NOT NULL,
    amount               REAL NOT NULL,
    PRIMARY KEY (month, category)
);

CREATE TABLE IF NOT EXISTS viewings (
    name                 TEXT NOT NULL,
    viewing_date         TEXT NOT NULL,
    board                TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (name, viewing_date, board)
);

CREATE TABLE IF NOT EXISTS sync_runs (
    run_id               TEXT PRIMARY KEY,
    status               TEXT NOT NULL,
    started_at           TEXT,
    finished_at          TEXT,
    result_json          TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_contracts_monday ON contracts(monday_id) WHERE monday_id IS NOT NULL AND monday_id != '';
CREATE INDEX IF NOT EXISTS idx_contracts_room ON contracts(room_id);
CREATE INDEX IF NOT EXISTS idx_contracts_dates ON contracts(start_date, end_date);
CREATE INDEX IF NOT EXISTS idx_schedule_due ON payment_schedule(due_date);
CREATE INDEX IF NOT EXISTS idx_schedule_contract ON payment_schedule(contract_id);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
`

// countedTables are the tables reported by Counts, in display order.
var countedTables = []string{"rooms", "contracts", "payment_schedule", "opex_budget", "viewings"}
