// Command createsuperuser creates an active staff account with superuser
// rights, the only way to obtain access to the category admin endpoints.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gorm.io/gorm"

	"moneta/internal/config"
	"moneta/internal/database"
	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/services"
	"moneta/internal/validator"
)

// openDB connects to the configured database with its schema up to date.
// Tests swap it for an in-memory database.
var openDB = func() (*gorm.DB, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	if err := manager.Migrate(); err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	return manager.DB(), manager.Close, nil
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address of the new superuser")
	fullname := fs.String("fullname", "", "Full name")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: createsuperuser -email <email> [-fullname <name>] [-password <password>]")
		fs.PrintDefaults()
		return errors.New("missing required flag: email")
	}
	if problems := validator.CheckEmail(*email); problems != nil {
		return fmt.Errorf("email: %s", strings.Join(problems, " "))
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		fmt.Fprintln(stdout)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if problems := validator.CheckPassword(password); problems != nil {
		return fmt.Errorf("password: %s", strings.Join(problems, " "))
	}

	db, closeDB, err := openDB()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDB()

	user, err := services.NewUserService(db).CreateSuperuser(*fullname, *email, password)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateAccount) {
			return fmt.Errorf("user %s already exists", services.NormalizeEmail(*email))
		}
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	fmt.Fprintf(stdout, "Superuser %s created with ID %s\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
