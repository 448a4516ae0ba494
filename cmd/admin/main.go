// Command admin creates an admin account in the configured database. The
// password is read from the terminal without echo.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/geocoder89/tourhub/internal/config"
	"github.com/geocoder89/tourhub/internal/db"
	"github.com/geocoder89/tourhub/internal/repo/postgres"
	"github.com/geocoder89/tourhub/internal/security"
	"golang.org/x/term"
)

// readPassword is swapped in tests so they never touch a terminal.
var readPassword = term.ReadPassword

const minPasswordLen = 8

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, out io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", cfg.AdminEmail, "admin email")
	name := fs.String("name", cfg.AdminName, "admin display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		e, err := prompt(bufio.NewReader(stdin), out, "Admin email")
		if err != nil {
			return err
		}
		*email = e
	}

	password, err := promptPassword(out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	created, err := db.EnsureAdminUser(ctx, postgres.NewUsersRepo(pool, nil), security.NewHasher(cfg.BcryptCost), db.AdminSeed{
		Email:    *email,
		Password: password,
		Name:     *name,
	})
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(out, "admin %s created\n", *email)
	} else {
		fmt.Fprintf(out, "a user with email %s already exists; nothing changed\n", *email)
	}
	return nil
}

func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label+": ")
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword asks twice and requires both entries to match.
func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprint(w, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}

	fmt.Fprint(w, "Confirm password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}

	return checkPassword(string(first), string(second))
}

func checkPassword(first, second string) (string, error) {
	if len(first) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}
