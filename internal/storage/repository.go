// Package storage is the SQLite read-model store the projections write
// through and the pre-validators query.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"contabile/internal/core"
	"contabile/internal/readmodel"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) UpsertAccount(ctx context.Context, account readmodel.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (account_id, bank_name, name, account_type,
			starting_balance_cents, currency, starting_balance_date, notes,
			active_month, active_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			bank_name = excluded.bank_name,
			name = excluded.name,
			account_type = excluded.account_type,
			starting_balance_cents = excluded.starting_balance_cents,
			currency = excluded.currency,
			starting_balance_date = excluded.starting_balance_date,
			notes = excluded.notes,
			active_month = excluded.active_month,
			active_year = excluded.active_year`,
		account.AccountID.String(), account.BankName, account.Name,
		string(account.AccountType), account.StartingBalance.Cents,
		string(account.StartingBalance.Currency), account.StartingBalanceDate.String(),
		account.Notes, int(account.ActiveMonth.Month), account.ActiveMonth.Year)
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", account.AccountID, err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateActiveMonth(ctx context.Context, id core.AccountID, month core.MonthYear) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET active_month = ?, active_year = ? WHERE account_id = ?`,
		int(month.Month), month.Year, id.String())
	if err != nil {
		return false, fmt.Errorf("update active month for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id core.AccountID) (readmodel.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT account_id, bank_name, name, account_type, starting_balance_cents,
			currency, starting_balance_date, notes, active_month, active_year
		FROM accounts WHERE account_id = ?`, id.String())
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return readmodel.Account{}, fmt.Errorf("account %s: %w", id, readmodel.ErrNotFound)
	}
	return account, err
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]readmodel.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT account_id, bank_name, name, account_type, starting_balance_cents,
			currency, starting_balance_date, notes, active_month, active_year
		FROM accounts ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []readmodel.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) AccountExists(ctx context.Context, id core.AccountID) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM accounts WHERE account_id = ?`, id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("account exists %s: %w", id, err)
	}
	return true, nil
}

func (r *SQLiteRepository) UpsertLedgerMonth(ctx context.Context, month readmodel.LedgerMonth) error {
	// Replayed opens must not reset the running balance or drop rows, so
	// conflicts leave the existing row alone.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_months (ledger_id, account_id, month, year,
			start_balance_cents, balance_cents, currency, closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ledger_id) DO NOTHING`,
		month.LedgerID.String(), month.AccountID.String(), int(month.Month),
		month.Year, month.StartBalance.Cents, month.Balance.Cents,
		string(month.Balance.Currency), boolToInt(month.Closed))
	if err != nil {
		return fmt.Errorf("upsert ledger month %s: %w", month.LedgerID, err)
	}
	return nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, id core.LedgerID, tx readmodel.Transaction) (bool, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	tagIDs, err := json.Marshal(tx.TagIDs)
	if err != nil {
		return false, fmt.Errorf("encode tag ids: %w", err)
	}

	res, err := dbTx.ExecContext(ctx, `
		INSERT INTO ledger_transactions (transaction_id, ledger_id,
			movement_type_id, action, amount_cents, currency, date,
			source_account_id, description, notes, tag_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (transaction_id) DO NOTHING`,
		tx.TransactionID.String(), id.String(), tx.MovementTypeID.String(),
		string(tx.Action), tx.Amount.Cents, string(tx.Amount.Currency),
		tx.Date.String(), sourceAccountColumn(tx.SourceAccountID),
		tx.Description, tx.Notes, string(tagIDs))
	if err != nil {
		return false, fmt.Errorf("insert transaction %s: %w", tx.TransactionID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if inserted == 0 {
		// Already applied; leave the balance alone.
		return false, nil
	}

	res, err = dbTx.ExecContext(ctx,
		`UPDATE ledger_months SET balance_cents = balance_cents + ? WHERE ledger_id = ?`,
		tx.Amount.Cents, id.String())
	if err != nil {
		return false, fmt.Errorf("adjust balance for %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return false, fmt.Errorf("ledger month %s: %w", id, readmodel.ErrNotFound)
	}

	if err := dbTx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction append: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) CloseLedgerMonth(ctx context.Context, id core.LedgerID, balance core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_months SET balance_cents = ?, closed = 1 WHERE ledger_id = ?`,
		balance.Cents, id.String())
	if err != nil {
		return fmt.Errorf("close ledger month %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("ledger month %s: %w", id, readmodel.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetLedgerMonth(ctx context.Context, id core.LedgerID) (readmodel.LedgerMonth, error) {
	var (
		month			readmodel.LedgerMonth
		accountID, currency	string
		monthNum, closed	int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT account_id, month, year, start_balance_cents, balance_cents, currency, closed
		FROM ledger_months WHERE ledger_id = ?`, id.String()).
		Scan(&accountID, &monthNum, &month.Year, &month.StartBalance.Cents,
			&month.Balance.Cents, &currency, &closed)
	if errors.Is(err, sql.ErrNoRows) {
		return readmodel.LedgerMonth{}, fmt.Errorf("ledger month %s: %w", id, readmodel.ErrNotFound)
	}
	if err != nil {
		return readmodel.LedgerMonth{}, fmt.Errorf("get ledger month %s: %w", id, err)
	}

	parsedAccount, err := core.ParseAccountID(accountID)
	if err != nil {
		return readmodel.LedgerMonth{}, fmt.Errorf("parse account id: %w", err)
	}
	month.LedgerID = id
	month.AccountID = parsedAccount
	month.Month = time.Month(monthNum)
	month.StartBalance.Currency = core.Currency(currency)
	month.Balance.Currency = core.Currency(currency)
	month.Closed = closed != 0

	month.Transactions, err = r.listTransactions(ctx, id)
	if err != nil {
		return readmodel.LedgerMonth{}, err
	}
	return month, nil
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, id core.LedgerID) ([]readmodel.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, movement_type_id, action, amount_cents, currency,
			date, source_account_id, description, notes, tag_ids
		FROM ledger_transactions
		WHERE ledger_id = ?
		ORDER BY date ASC, transaction_id ASC`, id.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", id, err)
	}
	defer rows.Close()

	var transactions []readmodel.Transaction
	for rows.Next() {
		var (
			tx					readmodel.Transaction
			txID, mtID, action, currency, date	string
			sourceAccount, tagIDs			string
		)
		if err := rows.Scan(&txID, &mtID, &action, &tx.Amount.Cents, &currency,
			&date, &sourceAccount, &tx.Description, &tx.Notes, &tagIDs); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		if tx.TransactionID, err = core.ParseTransactionID(txID); err != nil {
			return nil, fmt.Errorf("parse transaction id: %w", err)
		}
		if tx.MovementTypeID, err = core.ParseMovementTypeID(mtID); err != nil {
			return nil, fmt.Errorf("parse movement type id: %w", err)
		}
		if sourceAccount != "" {
			if tx.SourceAccountID, err = core.ParseAccountID(sourceAccount); err != nil {
				return nil, fmt.Errorf("parse source account id: %w", err)
			}
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse transaction date: %w", err)
		}
		if err := json.Unmarshal([]byte(tagIDs), &tx.TagIDs); err != nil {
			return nil, fmt.Errorf("decode tag ids: %w", err)
		}
		tx.Action = core.MovementAction(action)
		tx.Amount.Currency = core.Currency(currency)
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (r *SQLiteRepository) UpsertMovementType(ctx context.Context, mt readmodel.MovementType) error {
	tagIDs, err := json.Marshal(mt.TagIDs)
	if err != nil {
		return fmt.Errorf("encode tag ids: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO movement_types (movement_type_id, action, account_id,
			source_account_id, description, notes, tag_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (movement_type_id) DO NOTHING`,
		mt.MovementTypeID.String(), string(mt.Action), mt.AccountID.String(),
		sourceAccountColumn(mt.SourceAccountID), mt.Description, mt.Notes, string(tagIDs))
	if err != nil {
		return fmt.Errorf("upsert movement type %s: %w", mt.MovementTypeID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetMovementType(ctx context.Context, id core.MovementTypeID) (readmodel.MovementType, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT movement_type_id, action, account_id, source_account_id,
			description, notes, tag_ids
		FROM movement_types WHERE movement_type_id = ?`, id.String())
	mt, err := scanMovementType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return readmodel.MovementType{}, fmt.Errorf("movement type %s: %w", id, readmodel.ErrNotFound)
	}
	return mt, err
}

func (r *SQLiteRepository) ListMovementTypes(ctx context.Context) ([]readmodel.MovementType, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT movement_type_id, action, account_id, source_account_id,
			description, notes, tag_ids
		FROM movement_types ORDER BY movement_type_id`)
	if err != nil {
		return nil, fmt.Errorf("list movement types: %w", err)
	}
	defer rows.Close()

	var types []readmodel.MovementType
	for rows.Next() {
		mt, err := scanMovementType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, mt)
	}
	return types, rows.Err()
}

func (r *SQLiteRepository) UpsertTagCategory(ctx context.Context, category readmodel.TagCategory) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO tag_categories (tag_category_id, name, notes)
		VALUES (?, ?, ?)
		ON CONFLICT (tag_category_id) DO NOTHING`,
		category.TagCategoryID.String(), category.Name, category.Notes)
	if err != nil {
		return fmt.Errorf("upsert tag category %s: %w", category.TagCategoryID, err)
	}

	for _, tag := range category.Tags {
		if err := insertTag(ctx, dbTx, category.TagCategoryID, tag); err != nil {
			return err
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tag category upsert: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AppendTag(ctx context.Context, id core.TagCategoryID, tag readmodel.Tag) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM tag_categories WHERE tag_category_id = ?`, id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("tag category %s: %w", id, readmodel.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup tag category %s: %w", id, err)
	}
	return insertTag(ctx, r.db, id, tag)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTag(ctx context.Context, db execer, categoryID core.TagCategoryID, tag readmodel.Tag) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tags (tag_id, tag_category_id, name, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tag_id) DO NOTHING`,
		tag.TagID.String(), categoryID.String(), tag.Name, tag.Notes)
	if err != nil {
		return fmt.Errorf("insert tag %s: %w", tag.TagID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetTagCategory(ctx context.Context, id core.TagCategoryID) (readmodel.TagCategory, error) {
	var category readmodel.TagCategory
	var rawID string
	err := r.db.QueryRowContext(ctx,
		`SELECT tag_category_id, name, notes FROM tag_categories WHERE tag_category_id = ?`,
		id.String()).Scan(&rawID, &category.Name, &category.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return readmodel.TagCategory{}, fmt.Errorf("tag category %s: %w", id, readmodel.ErrNotFound)
	}
	if err != nil {
		return readmodel.TagCategory{}, fmt.Errorf("get tag category %s: %w", id, err)
	}
	category.TagCategoryID = id

	category.Tags, err = r.listTags(ctx, id)
	if err != nil {
		return readmodel.TagCategory{}, err
	}
	return category, nil
}

func (r *SQLiteRepository) listTags(ctx context.Context, id core.TagCategoryID) ([]readmodel.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag_id, name, notes FROM tags WHERE tag_category_id = ? ORDER BY tag_id`,
		id.String())
	if err != nil {
		return nil, fmt.Errorf("list tags for %s: %w", id, err)
	}
	defer rows.Close()

	var tags []readmodel.Tag
	for rows.Next() {
		var tag readmodel.Tag
		var rawID string
		if err := rows.Scan(&rawID, &tag.Name, &tag.Notes); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if tag.TagID, err = core.ParseTagID(rawID); err != nil {
			return nil, fmt.Errorf("parse tag id: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *SQLiteRepository) ListTagCategories(ctx context.Context) ([]readmodel.TagCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag_category_id, name, notes FROM tag_categories ORDER BY tag_category_id`)
	if err != nil {
		return nil, fmt.Errorf("list tag categories: %w", err)
	}
	defer rows.Close()

	var categories []readmodel.TagCategory
	for rows.Next() {
		var category readmodel.TagCategory
		var rawID string
		if err := rows.Scan(&rawID, &category.Name, &category.Notes); err != nil {
			return nil, fmt.Errorf("scan tag category: %w", err)
		}
		if category.TagCategoryID, err = core.ParseTagCategoryID(rawID); err != nil {
			return nil, fmt.Errorf("parse tag category id: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range categories {
		if categories[i].Tags, err = r.listTags(ctx, categories[i].TagCategoryID); err != nil {
			return nil, err
		}
	}
	return categories, nil
}

func (r *SQLiteRepository) TagCategoryExists(ctx context.Context, id core.TagCategoryID) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM tag_categories WHERE tag_category_id = ?`, id.String())
}

func (r *SQLiteRepository) TagCategoryNameExists(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM tag_categories WHERE name = ? COLLATE NOCASE`, name)
}

func (r *SQLiteRepository) TagExists(ctx context.Context, id core.TagID) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM tags WHERE tag_id = ?`, id.String())
}

func (r *SQLiteRepository) TagNameExists(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM tags WHERE name = ? COLLATE NOCASE`, name)
}

func (r *SQLiteRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("existence query: %w", err)
	}
	return true, nil
}

func scanAccount(row interface{ Scan(...any) error }) (readmodel.Account, error) {
	var (
		account					readmodel.Account
		rawID, accountType, currency, date	string
		activeMonth				int
	)
	err := row.Scan(&rawID, &account.BankName, &account.Name, &accountType,
		&account.StartingBalance.Cents, &currency, &date, &account.Notes,
		&activeMonth, &account.ActiveMonth.Year)
	if err != nil {
		return readmodel.Account{}, err
	}

	if account.AccountID, err = core.ParseAccountID(rawID); err != nil {
		return readmodel.Account{}, fmt.Errorf("parse account id: %w", err)
	}
	if account.StartingBalanceDate, err = core.ParseDate(date); err != nil {
		return readmodel.Account{}, fmt.Errorf("parse starting balance date: %w", err)
	}
	account.AccountType = core.AccountType(accountType)
	account.StartingBalance.Currency = core.Currency(currency)
	account.ActiveMonth.Month = time.Month(activeMonth)
	return account, nil
}

func scanMovementType(row interface{ Scan(...any) error }) (readmodel.MovementType, error) {
	var (
		mt				readmodel.MovementType
		rawID, action, accountID	string
		sourceAccount, tagIDs		string
	)
	err := row.Scan(&rawID, &action, &accountID, &sourceAccount,
		&mt.Description, &mt.Notes, &tagIDs)
	if err != nil {
		return readmodel.MovementType{}, err
	}

	if mt.MovementTypeID, err = core.ParseMovementTypeID(rawID); err != nil {
		return readmodel.MovementType{}, fmt.Errorf("parse movement type id: %w", err)
	}
	if mt.AccountID, err = core.ParseAccountID(accountID); err != nil {
		return readmodel.MovementType{}, fmt.Errorf("parse account id: %w", err)
	}
	if sourceAccount != "" {
		if mt.SourceAccountID, err = core.ParseAccountID(sourceAccount); err != nil {
			return readmodel.MovementType{}, fmt.Errorf("parse source account id: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(tagIDs), &mt.TagIDs); err != nil {
		return readmodel.MovementType{}, fmt.Errorf("decode tag ids: %w", err)
	}
	mt.Action = core.MovementAction(action)
	return mt, nil
}

func sourceAccountColumn(id core.AccountID) string {
	if id.IsZero() {
		return ""
	}
	return id.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ readmodel.Store = (*SQLiteRepository)(nil)
