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
	// Balance queries
	queryGetBalance = `
		SELECT balance
		FROM account_balances
		WHERE user_id = ?`

	queryGetAllBalances = `
		SELECT id, user_id, balance, last_transaction_id, version, updated_at
		FROM account_balances
		WHERE balance != 0
		ORDER BY user_id`

	queryReconcileBalance = `
		SELECT COALESCE(SUM(amount), 0) as calculated_balance
		FROM transactions
		WHERE user_id = ? AND status = 'confirmed'`

	// Transaction queries
	queryCheckDuplicateTransaction = `
		SELECT id FROM transactions WHERE external_transaction_id = ? LIMIT 1`

	queryGetAccountBalance = `
		SELECT id, balance, version
		FROM account_balances
		WHERE user_id = ?`

	queryInsertAccountBalance = `
		INSERT INTO account_balances (id, user_id, balance, version)
		VALUES (?, ?, ?, ?)`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, run_id, user_id, company_id, transaction_type, amount, balance_before, balance_after,
			tokens_before, tokens_after, external_transaction_id, reference, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, run_id, user_id, company_id, transaction_type, amount, balance_before, balance_after,
		          tokens_before, tokens_after, external_transaction_id, reference, status, created_at`

	queryUpdateAccountBalance = `
		UPDATE account_balances
		SET balance = ?, last_transaction_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND version = ?`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_type, account_id, debit_amount, credit_amount)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, run_id, user_id, company_id, transaction_type, amount, balance_before, balance_after,
		       tokens_before, tokens_after, external_transaction_id, reference, status, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
)
