package sqlite

// schemaVersion is stored in meta and checked on Attach.
const schemaVersion = "1"

// Schema DDL. Tables are created if missing so an existing xvault.db keeps
// its ledger across runs.
const (
	createMeta = `CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createAccounts = `CREATE TABLE IF NOT EXISTS accounts (
    address TEXT PRIMARY KEY,
    label TEXT,
    balance TEXT NOT NULL,
    nonce INTEGER NOT NULL
);`

	createContracts = `CREATE TABLE IF NOT EXISTS contracts (
    address TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    state TEXT NOT NULL
);`

	createBlocks = `CREATE TABLE IF NOT EXISTS blocks (
    number INTEGER PRIMARY KEY,
    hash TEXT NOT NULL,
    parent_hash TEXT,
    time TEXT NOT NULL
);`

	createReceipts = `CREATE TABLE IF NOT EXISTS receipts (
    receipt_id TEXT PRIMARY KEY,
    seq INTEGER NOT NULL,
    block INTEGER NOT NULL,
    block_hash TEXT NOT NULL,
    from_address TEXT NOT NULL,
    to_address TEXT NOT NULL,
    method TEXT NOT NULL,
    args TEXT NOT NULL,
    value TEXT NOT NULL,
    status TEXT NOT NULL,
    error TEXT,
    time TEXT NOT NULL
);`

	createLogs = `CREATE TABLE IF NOT EXISTS logs (
    receipt_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    address TEXT NOT NULL,
    event TEXT NOT NULL,
    fields TEXT NOT NULL,
    PRIMARY KEY (receipt_id, idx),
    FOREIGN KEY (receipt_id) REFERENCES receipts(receipt_id) ON DELETE CASCADE
);`

	createDeployments = `CREATE TABLE IF NOT EXISTS deployments (
    name TEXT PRIMARY KEY,
    profile TEXT NOT NULL,
    deployer TEXT NOT NULL,
    market TEXT NOT NULL,
    token TEXT NOT NULL,
    vault TEXT NOT NULL,
    block INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`
)

const (
	idxReceiptsSeq    = `CREATE UNIQUE INDEX IF NOT EXISTS idx_receipts_seq ON receipts(seq);`
	idxReceiptsFrom   = `CREATE INDEX IF NOT EXISTS idx_receipts_from ON receipts(from_address);`
	idxReceiptsMethod = `CREATE INDEX IF NOT EXISTS idx_receipts_method ON receipts(method);`
	idxLogsEvent      = `CREATE INDEX IF NOT EXISTS idx_logs_event ON logs(event);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createMeta,
	createAccounts,
	createContracts,
	createBlocks,
	createReceipts,
	createLogs,
	createDeployments,
}

var indexDDL = []string{
	idxReceiptsSeq,
	idxReceiptsFrom,
	idxReceiptsMethod,
	idxLogsEvent,
}
