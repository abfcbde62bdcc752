// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the storage slots of the builtin contracts.
// It follows the flow as below:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ staged into a kv batch ]
//	         |
//	   [ lru cache ]
//	         |
//	[ committed kv store ]
//
// Every ledger call runs between NewCheckpoint and either RevertTo or Stage, so a
// failed call leaves no trace and a successful one is written in a single batch.
package state
