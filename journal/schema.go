package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	kind TEXT NOT NULL,
	asset TEXT NOT NULL,
	period TEXT NOT NULL,
	profile TEXT NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	net_return_pct REAL NOT NULL,
	profit_usd REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	avg_r REAL NOT NULL,
	passed BOOLEAN NOT NULL,
	reason TEXT NOT NULL,
	notes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sim_trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	asset TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	tp1 REAL NOT NULL,
	tp2 REAL NOT NULL,
	tp3 REAL NOT NULL,
	exit_reason TEXT NOT NULL,
	r REAL NOT NULL,
	confluence INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS risk_trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	lot_size REAL NOT NULL,
	risk_usd REAL NOT NULL,
	risk_pct REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME,
	exit_price REAL NOT NULL,
	pnl_usd REAL NOT NULL,
	is_open BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
CREATE INDEX IF NOT EXISTS idx_risk_trades_entry ON risk_trades(entry_time);
`
