package services

import (
	"sync"
	"testing"
	"time"

	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestCreatePendingUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreatePendingUser("Alice Smith", "Alice@EXAMPLE.com ", "Passw0rd!")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID to be set")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected normalised email, got %s", user.Email)
		}
		if user.IsActive {
			t.Error("expected pending user to be inactive")
		}
		if user.Password == "Passw0rd!" {
			t.Error("expected password to be hashed")
		}
		if !svc.VerifyPassword(user, "Passw0rd!") {
			t.Error("expected stored hash to match the password")
		}
	})

	t.Run("pending_row_takes_latest_credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		first, err := svc.CreatePendingUser("First", "dup@example.com", "Passw0rd!")
		testutil.AssertNoError(t, err)
		second, err := svc.CreatePendingUser("Second", "dup@example.com", "0ther-Pass!")
		testutil.AssertNoError(t, err)

		if first.ID != second.ID {
			t.Errorf("expected the same row, got %s and %s", first.ID, second.ID)
		}
		if second.Fullname != "Second" {
			t.Errorf("expected latest name, got %s", second.Fullname)
		}
		if !svc.VerifyPassword(second, "0ther-Pass!") {
			t.Error("expected latest password to be stored")
		}
		if svc.VerifyPassword(second, "Passw0rd!") {
			t.Error("expected earlier password to be replaced")
		}

		var count int64
		db.Model(&models.User{}).Where("email = ?", "dup@example.com").Count(&count)
		if count != 1 {
			t.Errorf("expected 1 user row, got %d", count)
		}
	})

	t.Run("active_row_is_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		existing := testutil.CreateTestUserWithEmail(t, db, "taken@example.com")

		user, err := svc.CreatePendingUser("Intruder", "taken@example.com", "Attack3r!")
		testutil.AssertNoError(t, err)

		if user.ID != existing.ID {
			t.Errorf("expected the existing row, got %s", user.ID)
		}
		if !user.IsActive {
			t.Error("expected account to stay active")
		}
		if !svc.VerifyPassword(user, testutil.TestPassword) {
			t.Error("expected original password to survive")
		}
		if user.Fullname == "Intruder" {
			t.Error("expected original name to survive")
		}
	})

	t.Run("concurrent_requests_create_one_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		var wg sync.WaitGroup
		ids := make([]string, 8)
		errs := make([]error, 8)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				user, err := svc.CreatePendingUser("Racer", "race@example.com", "Passw0rd!")
				errs[i] = err
				if err == nil {
					ids[i] = user.ID
				}
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			testutil.AssertNoError(t, err)
			if ids[i] != ids[0] {
				t.Errorf("expected every caller to see row %s, got %s", ids[0], ids[i])
			}
		}

		var count int64
		db.Model(&models.User{}).Where("email = ?", "race@example.com").Count(&count)
		if count != 1 {
			t.Errorf("expected 1 user row, got %d", count)
		}
	})

	t.Run("empty_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreatePendingUser("", " ", "Passw0rd!")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestCreateSuperuser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateSuperuser("Admin", "admin@example.com", "Passw0rd!")
	testutil.AssertNoError(t, err)
	if !user.IsActive || !user.IsStaff || !user.IsSuperuser {
		t.Errorf("expected active staff superuser, got %+v", user)
	}

	_, err = svc.CreateSuperuser("Admin", "ADMIN@example.com", "Passw0rd!")
	testutil.AssertAppError(t, err, "DUPLICATE_ACCOUNT")
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		created := testutil.CreateTestUserWithEmail(t, db, "found@example.com")
		user, err := svc.GetUserByEmail("FOUND@example.com")
		testutil.AssertNoError(t, err)

		if user.ID != created.ID {
			t.Errorf("expected user ID %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("inactive_user_is_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		testutil.CreateTestInactiveUser(t, db, "inactive@example.com")
		user, err := svc.GetUserByEmail("inactive@example.com")
		testutil.AssertNoError(t, err)
		if user.IsActive {
			t.Error("expected inactive user")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetUserByEmail("nonexistent@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestGetUserByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		created := testutil.CreateTestUser(t, db)
		user, err := svc.GetUserByID(created.ID)
		testutil.AssertNoError(t, err)

		if user.Email != created.Email {
			t.Errorf("expected email %s, got %s", created.Email, user.Email)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetUserByID("0192f0a0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestActivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	target := testutil.CreateTestInactiveUser(t, db, "target@example.com")
	other := testutil.CreateTestInactiveUser(t, db, "other@example.com")

	testutil.AssertNoError(t, svc.Activate(target.ID))

	got, _ := svc.GetUserByID(target.ID)
	if !got.IsActive {
		t.Error("expected target to be active")
	}
	got, _ = svc.GetUserByID(other.ID)
	if got.IsActive {
		t.Error("expected other user to stay inactive")
	}

	err := svc.Activate("0192f0a0-0000-7000-8000-000000000000")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestSetPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)
	locked := time.Now().Add(time.Hour)
	db.Model(user).Updates(map[string]interface{}{
		"refresh_token_hash":    "abc",
		"failed_login_attempts": 3,
		"locked_until":          locked,
	})

	testutil.AssertNoError(t, svc.SetPassword(user.ID, "N3w-secret"))

	got, _ := svc.GetUserByID(user.ID)
	if !svc.VerifyPassword(got, "N3w-secret") {
		t.Error("expected new password to verify")
	}
	if svc.VerifyPassword(got, testutil.TestPassword) {
		t.Error("expected old password to stop verifying")
	}
	if got.RefreshTokenHash != "" || got.FailedLoginAttempts != 0 || got.LockedUntil != nil {
		t.Errorf("expected session state to be cleared, got %+v", got)
	}
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		created := testutil.CreateTestUserWithEmail(t, db, "login@example.com")
		user, err := svc.AttemptLogin("Login@example.com", testutil.TestPassword)
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}

		got, _ := svc.GetUserByID(created.ID)
		if got.LastLoginAt == nil {
			t.Error("expected last login to be recorded")
		}
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.AttemptLogin("nobody@example.com", testutil.TestPassword)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("inactive_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		testutil.CreateTestInactiveUser(t, db, "pending@example.com")
		_, err := svc.AttemptLogin("pending@example.com", testutil.TestPassword)
		testutil.AssertAppError(t, err, "ACCOUNT_INACTIVE")

		_, err = svc.AttemptLogin("pending@example.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("lockout_after_repeated_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user := testutil.CreateTestUser(t, db)
		for i := 0; i < maxFailedLoginAttempts; i++ {
			_, err := svc.AttemptLogin(user.Email, "wrong-password")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		_, err := svc.AttemptLogin(user.Email, testutil.TestPassword)
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

		past := time.Now().UTC().Add(-time.Minute)
		db.Model(&models.User{}).Where("id = ?", user.ID).Update("locked_until", past)

		_, err = svc.AttemptLogin(user.Email, testutil.TestPassword)
		testutil.AssertNoError(t, err)
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)
	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "deadbeef"))

	hash, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if hash != "deadbeef" {
		t.Errorf("expected stored hash, got %q", hash)
	}
}
