// Package postgresdb provides a PostgreSQL-based implementation of the
// storage interface for persisting and retrieving users and their
// logged exercises. Schema management is done with goose migrations.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/fitlog/internal/db/storage"
	"github.com/patric-chuzhbe/fitlog/internal/models"
)

// PostgresDB is a PostgreSQL-backed implementation of the exercise
// tracker storage. It handles all persistence operations via a
// PostgreSQL database connection.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables resetting the database schema before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
// Optionally accepts initialization options, such as WithDBPreReset.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateUser inserts a new user record. The unique index on username
// makes concurrent identical inserts resolve to a single winner; the
// losers get storage.ErrUniqueViolation.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	userID := usr.ID
	if userID == "" {
		userID = uuid.New().String()
	}

	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (id, username) VALUES ($1, $2) RETURNING id`,
		userID,
		usr.Username,
	)
	var userIDFromDB string
	err := row.Scan(&userIDFromDB)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("username %q: %w", usr.Username, storage.ErrUniqueViolation)
		}
		return "", err
	}

	return userIDFromDB, nil
}

// GetUserByID fetches a user by ID. The second return value reports
// whether the user exists.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*models.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, username, created_at, updated_at FROM users WHERE id = $1`,
		userID,
	)

	return scanUser(row)
}

// GetUserByUsername fetches a user by username. The second return value
// reports whether the user exists.
func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, username, created_at, updated_at FROM users WHERE username = $1`,
		username,
	)

	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, bool, error) {
	var usr models.User
	err := row.Scan(&usr.ID, &usr.Username, &usr.CreatedAt, &usr.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &usr, true, nil
}

// GetUsers returns every user in insertion order.
func (db *PostgresDB) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, username, created_at, updated_at FROM users ORDER BY seq`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.User{}
	for rows.Next() {
		var usr models.User
		err = rows.Scan(&usr.ID, &usr.Username, &usr.CreatedAt, &usr.UpdatedAt)
		if err != nil {
			return nil, err
		}

		result = append(result, usr)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CreateExercise inserts a new exercise record referencing an existing
// user and returns its ID.
func (db *PostgresDB) CreateExercise(ctx context.Context, exercise *models.Exercise) (string, error) {
	exerciseID := exercise.ID
	if exerciseID == "" {
		exerciseID = uuid.New().String()
	}

	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO exercises (id, user_id, description, duration, "date")
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id
		`,
		exerciseID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date,
	)
	var exerciseIDFromDB string
	err := row.Scan(&exerciseIDFromDB)
	if err != nil {
		return "", err
	}

	return exerciseIDFromDB, nil
}

// GetUserExercises returns the user's exercises in insertion order,
// restricted by the optional inclusive date bounds and count limit.
func (db *PostgresDB) GetUserExercises(
	ctx context.Context,
	userID string,
	filter models.ExerciseFilter,
) ([]models.Exercise, error) {
	query := `SELECT id, user_id, description, duration, "date" FROM exercises WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.HasFrom {
		args = append(args, filter.From)
		query += fmt.Sprintf(` AND "date" >= $%d`, len(args))
	}
	if filter.HasTo {
		args = append(args, filter.To)
		query += fmt.Sprintf(` AND "date" <= $%d`, len(args))
	}

	query += ` ORDER BY seq`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := db.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Exercise{}
	for rows.Next() {
		var exercise models.Exercise
		err = rows.Scan(
			&exercise.ID,
			&exercise.UserID,
			&exercise.Description,
			&exercise.Duration,
			&exercise.Date,
		)
		if err != nil {
			return nil, err
		}

		result = append(result, exercise)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetNumberOfUsers returns the total amount of users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM users`)
}

// GetNumberOfExercises returns the total amount of logged exercises.
func (db *PostgresDB) GetNumberOfExercises(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM exercises`)
}

func (db *PostgresDB) count(ctx context.Context, query string) (int64, error) {
	row := db.database.QueryRowContext(ctx, query)
	var result int64
	err := row.Scan(&result)
	if err != nil {
		return 0, err
	}

	return result, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	err := db.database.Close()
	if err != nil {
		return err
	}

	return nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
