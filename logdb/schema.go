// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// event holds one row per emitted event; event_account indexes the accounts an
// event mentions in its arguments.
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	receiptID BLOB NOT NULL,
	time INTEGER NOT NULL,
	caller BLOB NOT NULL,
	address BLOB NOT NULL,
	name TEXT NOT NULL,
	args TEXT NOT NULL,
	PRIMARY KEY (seq, eventIndex)
);

CREATE INDEX IF NOT EXISTS eventNameIndex ON event(name);
CREATE INDEX IF NOT EXISTS eventAddressIndex ON event(address);
CREATE INDEX IF NOT EXISTS eventTimeIndex ON event(time);

CREATE TABLE IF NOT EXISTS event_account (
	account BLOB NOT NULL,
	seq INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	PRIMARY KEY (account, seq, eventIndex)
);
`
