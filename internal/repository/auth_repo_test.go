package repository

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
		WithArgs("farmer", "hashed").
		WillReturnResult(sqlmock.NewResult(5, 1))

	id, err := repo.Create("farmer", "hashed")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 5 {
		t.Fatalf("expected id=5, got %d", id)
	}
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewUserRepository(db)

	dup := errors.New("UNIQUE constraint failed: users.username")
	mock.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
		WithArgs("farmer", "hashed").
		WillReturnError(dup)

	if _, err := repo.Create("farmer", "hashed"); !errors.Is(err, dup) {
		t.Fatalf("expected wrapped unique error, got %v", err)
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash"}).
		AddRow(2, "farmer", "hashed")
	mock.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
		WithArgs("farmer").
		WillReturnRows(rows)

	u, err := repo.GetByUsername("farmer")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u == nil || u.ID != 2 || u.PasswordHash != "hashed" {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Not found is (nil, nil), not an error.
	mock.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}))

	u, err = repo.GetByUsername("ghost")
	if err != nil {
		t.Fatalf("GetByUsername ghost: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil user for unknown username, got %+v", u)
	}
}
