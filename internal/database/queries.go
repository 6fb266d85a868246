/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// Wallet queries
	queryInsertWallet = `
		INSERT INTO wallets (id, address, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(address) DO NOTHING`

	queryGetWalletByAddress = `
		SELECT id, address, COALESCE(user_id, ''), created_at
		FROM wallets
		WHERE address = ?`

	queryListWallets = `
		SELECT id, address, COALESCE(user_id, ''), created_at
		FROM wallets
		ORDER BY created_at, address`

	queryLinkWallet = `
		UPDATE wallets
		SET user_id = ?
		WHERE address = ? AND (user_id IS NULL OR user_id = '' OR user_id = ?)`

	// Round queries
	queryUpsertRound = `
		INSERT INTO raffle_rounds (id, round_id, prize_amount, created_at, updated_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(round_id) DO UPDATE SET
			prize_amount = excluded.prize_amount,
			updated_at = excluded.updated_at`

	querySetRoundWinner = `
		UPDATE raffle_rounds
		SET winner = ?, updated_at = ?
		WHERE round_id = ? AND winner IS NULL`

	queryGetRound = `
		SELECT id, round_id, prize_amount, COALESCE(winner, ''), created_at, updated_at, ended_at
		FROM raffle_rounds
		WHERE round_id = ?`

	queryGetLatestRound = `
		SELECT id, round_id, prize_amount, COALESCE(winner, ''), created_at, updated_at, ended_at
		FROM raffle_rounds
		ORDER BY round_id DESC
		LIMIT 1`

	queryListRounds = `
		SELECT id, round_id, prize_amount, COALESCE(winner, ''), created_at, updated_at, ended_at
		FROM raffle_rounds
		ORDER BY round_id DESC
		LIMIT ? OFFSET ?`

	// Wager queries
	queryInsertWager = `
		INSERT INTO wagers (id, wallet_id, raffle_round_id, wager_amount, tx_hash, created_at)
		SELECT ?, ?, r.id, ?, ?, ?
		FROM raffle_rounds r
		WHERE r.round_id = ?`

	queryGetWagerById = `
		SELECT w.id, w.wallet_id, w.raffle_round_id, r.round_id, w.wager_amount, w.tx_hash, w.created_at
		FROM wagers w
		JOIN raffle_rounds r ON r.id = w.raffle_round_id
		WHERE w.id = ?`

	queryGetRoundWagers = `
		SELECT w.wallet_id, wl.address, COALESCE(wl.user_id, ''), w.wager_amount, w.created_at
		FROM wagers w
		JOIN raffle_rounds r ON r.id = w.raffle_round_id
		JOIN wallets wl ON wl.id = w.wallet_id
		WHERE r.round_id = ?`

	queryGetHistoryByWallet = `
		SELECT w.id, w.wallet_id, wl.address, r.round_id, w.wager_amount, w.tx_hash,
		       r.prize_amount, COALESCE(r.winner, ''), r.ended_at, w.created_at
		FROM wagers w
		JOIN raffle_rounds r ON r.id = w.raffle_round_id
		JOIN wallets wl ON wl.id = w.wallet_id
		WHERE w.wallet_id = ?
		ORDER BY w.created_at DESC, w.rowid DESC`
)
